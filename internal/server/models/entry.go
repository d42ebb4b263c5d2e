package models

import "time"

// Entry is the server-side journal record. Version starts at 1 on create
// and increments on every accepted write; LastEditedDevice names the
// device whose write produced the current version.
type Entry struct {
	ID               string
	UserID           string
	Title            string
	Body             string
	StreamID         string
	StreamName       string
	Status           string
	EntryType        string
	DueDate          *time.Time
	Rating           int
	Priority         int
	EntryTime        time.Time
	ShowTime         bool
	LocationJSON     string
	Tags             []string
	Mentions         []string
	Version          int64
	LastEditedDevice string
	UpdatedAt        time.Time
	Deleted          bool
}
