package models

import "time"

// Record is the durable projection of an entry as the backing store sees
// it: snapshot fields plus sync metadata. Version is incremented by the
// store on every write; LastEditedDevice names the device that caused the
// last increment.
type Record struct {
	ID               string      `json:"id"`
	Version          int64       `json:"version"`
	LastEditedDevice string      `json:"last_edited_device"`
	UpdatedAt        time.Time   `json:"updated_at"`
	Deleted          bool        `json:"deleted,omitempty"`
	Title            string      `json:"title"`
	Body             string      `json:"body"`
	StreamID         string      `json:"stream_id,omitempty"`
	StreamName       string      `json:"stream_name,omitempty"`
	Status           EntryStatus `json:"status,omitempty"`
	EntryType        string      `json:"entry_type,omitempty"`
	DueDate          *time.Time  `json:"due_date,omitempty"`
	Rating           int         `json:"rating,omitempty"`
	Priority         int         `json:"priority,omitempty"`
	EntryTime        time.Time   `json:"entry_time"`
	ShowTime         bool        `json:"show_time,omitempty"`
	Location         *Location   `json:"location,omitempty"`
	Tags             []string    `json:"tags,omitempty"`
	Mentions         []string    `json:"mentions,omitempty"`
}

// Snapshot rebuilds an editable snapshot from the record. Used when
// adopting a remote update or discarding local changes in a conflict.
func (r *Record) Snapshot() EntrySnapshot {
	s := EntrySnapshot{
		Title:      r.Title,
		Body:       r.Body,
		StreamID:   r.StreamID,
		StreamName: r.StreamName,
		Status:     r.Status,
		EntryType:  r.EntryType,
		Rating:     r.Rating,
		Priority:   r.Priority,
		EntryTime:  r.EntryTime,
		ShowTime:   r.ShowTime,
	}
	if r.DueDate != nil {
		d := *r.DueDate
		s.DueDate = &d
	}
	s.Location = r.Location.Clone()
	return s
}

// RecordFields is the write payload for create/update calls: snapshot
// fields plus derived transport fields, without any sync metadata (the
// store owns version and timestamps).
type RecordFields struct {
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	StreamID   string      `json:"stream_id,omitempty"`
	StreamName string      `json:"stream_name,omitempty"`
	Status     EntryStatus `json:"status,omitempty"`
	EntryType  string      `json:"entry_type,omitempty"`
	DueDate    *time.Time  `json:"due_date,omitempty"`
	Rating     int         `json:"rating,omitempty"`
	Priority   int         `json:"priority,omitempty"`
	EntryTime  time.Time   `json:"entry_time"`
	ShowTime   bool        `json:"show_time,omitempty"`
	Location   *Location   `json:"location,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	Mentions   []string    `json:"mentions,omitempty"`
	Device     string      `json:"device"`
}
