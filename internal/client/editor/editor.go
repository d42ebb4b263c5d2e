package editor

// ContentEditor is the rich-text editing surface, a black box to the
// engine. Its live content is authoritative at save time: keystrokes that
// have not yet propagated into the snapshot must not be lost.
type ContentEditor interface {
	GetContent() string
	SetContent(s string)

	// Blur drops focus from any active input, used when a remote snapshot
	// is adopted under the user's cursor.
	Blur()
}
