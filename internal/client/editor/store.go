// Package editor holds the session-local editing state: the live snapshot
// with its baseline (dirty detection), the version tracker (conflict
// detection), and the autosave scheduler.
package editor

import (
	"fmt"
	"sync"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// SnapshotStore owns the live snapshot and the last known-clean baseline.
// The baseline is exclusively held here and is always a deep clone; it is
// never aliased to the live snapshot, otherwise dirty detection breaks.
type SnapshotStore struct {
	mu       sync.Mutex
	snapshot models.EntrySnapshot
	baseline *models.EntrySnapshot

	// editing is true once the entry exists in the durable store.
	editing bool

	// Attachments on existing entries persist immediately, bypassing the
	// pending list, so their count is tracked in a side channel.
	attachmentCount         int
	baselineAttachmentCount int
}

func NewSnapshotStore(initial models.EntrySnapshot, editing bool) *SnapshotStore {
	st := &SnapshotStore{snapshot: initial.Clone(), editing: editing}
	if editing {
		b := initial.Clone()
		st.baseline = &b
	}
	return st
}

// Snapshot returns a copy of the live snapshot.
func (st *SnapshotStore) Snapshot() models.EntrySnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshot.Clone()
}

// UpdateField shallow-merges a single named field into the live snapshot.
// No validation happens here; validation is a save-time concern.
func (st *SnapshotStore) UpdateField(name string, value any) error {
	return st.UpdateFields(map[string]any{name: value})
}

// UpdateFields applies a partial update. Unknown field names and value type
// mismatches are reported as errors; all other fields in the map are still
// applied before returning.
func (st *SnapshotStore) UpdateFields(fields map[string]any) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	for name, value := range fields {
		if err := applyField(&st.snapshot, name, value); err != nil {
			return err
		}
	}
	return nil
}

func applyField(s *models.EntrySnapshot, name string, value any) error {
	switch name {
	case "title":
		return setField(&s.Title, name, value)
	case "body":
		return setField(&s.Body, name, value)
	case "stream_id":
		return setField(&s.StreamID, name, value)
	case "stream_name":
		return setField(&s.StreamName, name, value)
	case "status":
		return setField(&s.Status, name, value)
	case "entry_type":
		return setField(&s.EntryType, name, value)
	case "due_date":
		return setField(&s.DueDate, name, value)
	case "rating":
		return setField(&s.Rating, name, value)
	case "priority":
		return setField(&s.Priority, name, value)
	case "entry_time":
		return setField(&s.EntryTime, name, value)
	case "show_time":
		return setField(&s.ShowTime, name, value)
	case "location":
		return setField(&s.Location, name, value)
	default:
		return fmt.Errorf("unknown snapshot field %q", name)
	}
}

func setField[T any](dst *T, name string, value any) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("field %q: cannot assign %T", name, value)
	}
	*dst = v
	return nil
}

// AddPendingPhoto appends to the pending list. Only valid before the entry
// has ever been saved.
func (st *SnapshotStore) AddPendingPhoto(p models.PendingAttachment) {
	st.mu.Lock()
	defer st.mu.Unlock()
	p.Position = len(st.snapshot.PendingPhotos)
	st.snapshot.PendingPhotos = append(st.snapshot.PendingPhotos, p)
}

// PendingPhotos returns a copy of the pending list.
func (st *SnapshotStore) PendingPhotos() []models.PendingAttachment {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]models.PendingAttachment, len(st.snapshot.PendingPhotos))
	copy(out, st.snapshot.PendingPhotos)
	return out
}

// ClearPendingPhotos empties the pending list after relocation.
func (st *SnapshotStore) ClearPendingPhotos() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot.PendingPhotos = nil
}

// SetBody replaces the body with authoritative editor content.
func (st *SnapshotStore) SetBody(body string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot.Body = body
}

// Replace swaps in a whole new snapshot, e.g. when adopting a remote
// record.
func (st *SnapshotStore) Replace(s models.EntrySnapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot = s.Clone()
}

// SetBaseline deep-clones snapshot into the baseline. Call it with the
// intended post-state, not the pre-state, or there is a one-frame window
// where the form reads dirty for no reason.
func (st *SnapshotStore) SetBaseline(s models.EntrySnapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	b := s.Clone()
	st.baseline = &b
}

// MarkClean re-baselines to the current live snapshot.
func (st *SnapshotStore) MarkClean() {
	st.mu.Lock()
	defer st.mu.Unlock()
	b := st.snapshot.Clone()
	st.baseline = &b
}

// IsDirty reports whether any tracked field differs from the baseline. For
// a brand-new entry with no baseline yet, it falls back to "has the user
// typed anything": an empty new entry is never dirty.
func (st *SnapshotStore) IsDirty() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.isDirtyLocked()
}

func (st *SnapshotStore) isDirtyLocked() bool {
	if st.baseline == nil {
		return st.snapshot.HasUserContent()
	}
	return !st.snapshot.Equal(*st.baseline)
}

// IsFormDirty is the superset dirty check the autosave gate and the UI
// use: snapshot dirtiness plus the attachment-count side channel while
// editing an existing entry.
func (st *SnapshotStore) IsFormDirty() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.isDirtyLocked() {
		return true
	}
	return st.editing && st.attachmentCount != st.baselineAttachmentCount
}

func (st *SnapshotStore) IsEditing() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.editing
}

// SetEditing flips the store into existing-entry mode, after the first
// successful create or on opening a persisted entry.
func (st *SnapshotStore) SetEditing(editing bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.editing = editing
}

// SetAttachmentCount updates the side channel.
func (st *SnapshotStore) SetAttachmentCount(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.attachmentCount = n
}

// RebaseAttachmentCount accepts the current count as clean.
func (st *SnapshotStore) RebaseAttachmentCount() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.baselineAttachmentCount = st.attachmentCount
}

func (st *SnapshotStore) AttachmentCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.attachmentCount
}
