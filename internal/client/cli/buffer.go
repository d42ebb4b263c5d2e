package cli

import "sync"

// bodyBuffer is the CLI's stand-in for a rich text editor surface: an
// in-memory body the entry loop appends to, read back at save time.
type bodyBuffer struct {
	mu      sync.Mutex
	content string
	focused bool
}

func (b *bodyBuffer) GetContent() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

func (b *bodyBuffer) SetContent(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = s
}

func (b *bodyBuffer) Blur() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focused = false
}
