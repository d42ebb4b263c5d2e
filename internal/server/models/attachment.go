package models

import "time"

// Attachment is the metadata row for a photo stored in object storage.
// The bytes themselves live under StorageKey in the S3 bucket.
type Attachment struct {
	ID         string
	EntryID    string
	UserID     string
	StorageKey string
	MimeType   string
	ByteSize   int64
	Width      int
	Height     int
	Position   int
	CreatedAt  time.Time
}
