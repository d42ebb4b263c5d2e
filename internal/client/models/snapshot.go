// Package models defines the editable journal entry projection, its durable
// record form, and attachment types.
package models

import (
	"strings"
	"time"
)

// EntryStatus classifies an entry on the task axis.
type EntryStatus string

const (
	StatusNone EntryStatus = ""
	StatusTodo EntryStatus = "todo"
	StatusDone EntryStatus = "done"
)

// GeocodeStatus tracks how far a location has gone through geocoding.
type GeocodeStatus string

const (
	GeocodeNone     GeocodeStatus = ""
	GeocodePending  GeocodeStatus = "pending"
	GeocodeResolved GeocodeStatus = "resolved"
	GeocodeFailed   GeocodeStatus = "failed"
)

// Location is a structured place reference attached to an entry.
type Location struct {
	Latitude        float64       `json:"latitude"`
	Longitude       float64       `json:"longitude"`
	Name            string        `json:"name,omitempty"`
	Geocode         GeocodeStatus `json:"geocode,omitempty"`
	SavedLocationID string        `json:"saved_location_id,omitempty"`
}

// Clone returns an independent copy. Nil stays nil.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// Equal compares by deep value. Two nils are equal.
func (l *Location) Equal(o *Location) bool {
	if l == nil || o == nil {
		return l == o
	}
	return *l == *o
}

// EntrySnapshot is the live editable field set for one entry. Exactly one
// snapshot is live per edit session. Copies must be taken with Clone so the
// baseline never aliases the live value.
type EntrySnapshot struct {
	Title         string
	Body          string
	StreamID      string
	StreamName    string
	Status        EntryStatus
	EntryType     string
	DueDate       *time.Time
	Rating        int
	Priority      int
	EntryTime     time.Time
	ShowTime      bool
	Location      *Location
	PendingPhotos []PendingAttachment
}

// Clone deep-copies the snapshot: pointer and slice fields are duplicated so
// the result shares no mutable state with the receiver.
func (s EntrySnapshot) Clone() EntrySnapshot {
	c := s
	if s.DueDate != nil {
		d := *s.DueDate
		c.DueDate = &d
	}
	c.Location = s.Location.Clone()
	if s.PendingPhotos != nil {
		c.PendingPhotos = make([]PendingAttachment, len(s.PendingPhotos))
		copy(c.PendingPhotos, s.PendingPhotos)
	}
	return c
}

// Equal reports whether two snapshots match under field-appropriate
// equality: times by instant, location by deep value, pending photos by
// count. This is the comparison dirty detection runs against the baseline.
func (s EntrySnapshot) Equal(o EntrySnapshot) bool {
	if s.Title != o.Title ||
		s.Body != o.Body ||
		s.StreamID != o.StreamID ||
		s.StreamName != o.StreamName ||
		s.Status != o.Status ||
		s.EntryType != o.EntryType ||
		s.Rating != o.Rating ||
		s.Priority != o.Priority ||
		s.ShowTime != o.ShowTime {
		return false
	}
	if !timePtrEqual(s.DueDate, o.DueDate) {
		return false
	}
	if !s.EntryTime.Equal(o.EntryTime) {
		return false
	}
	if !s.Location.Equal(o.Location) {
		return false
	}
	return len(s.PendingPhotos) == len(o.PendingPhotos)
}

// HasUserContent reports whether the user has actually typed or attached
// anything. A brand-new entry with no content is never considered dirty and
// is never persisted.
func (s EntrySnapshot) HasUserContent() bool {
	if strings.TrimSpace(s.Title) != "" {
		return true
	}
	if StripBody(s.Body) != "" {
		return true
	}
	return len(s.PendingPhotos) > 0
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
