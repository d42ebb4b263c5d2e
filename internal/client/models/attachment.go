package models

// PendingAttachment is a photo captured before the entry has ever been
// saved. It lives under temp-keyed storage until the first create succeeds,
// at which point it is relocated under the real entry id and dropped from
// the pending list.
type PendingAttachment struct {
	ID         string `json:"id"`
	LocalPath  string `json:"local_path"`
	ThumbPath  string `json:"thumb_path,omitempty"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	ByteSize   int64  `json:"byte_size"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Position   int    `json:"position"`
}

// Attachment is the persisted attachment record kept alongside an entry.
type Attachment struct {
	ID         string `json:"id"`
	EntryID    string `json:"entry_id"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	ByteSize   int64  `json:"byte_size"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Position   int    `json:"position"`
}
