package editor

import (
	"sync"
	"time"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// ConflictCheck is the answer to "does this remote record conflict with
// what we have locally".
type ConflictCheck struct {
	HasConflict    bool
	ConflictDevice string
	CurrentVersion int64 // remote's version
	BaseVersion    int64 // the version this client last incorporated
}

// ExternalCheck is the answer to "did this version bump originate here".
type ExternalCheck struct {
	IsExternal bool
	Device     string
	ThisDevice string
}

// VersionTracker owns the last document version this client has observed
// and when this client last wrote. It is mutated only by first-load
// initialization, explicit override after conflict handling, and
// increment-on-successful-save.
type VersionTracker struct {
	mu           sync.Mutex
	knownVersion int64 // 0 means "not yet observed"
	lastSaveAt   time.Time
	device       DeviceIdentityProvider
}

func NewVersionTracker(device DeviceIdentityProvider) *VersionTracker {
	return &VersionTracker{device: device}
}

// InitializeVersion sets the known version only if it is currently unset.
// First writer wins; repeat calls are no-ops.
func (t *VersionTracker) InitializeVersion(v int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.knownVersion == 0 {
		t.knownVersion = v
	}
}

// UpdateKnownVersion overrides unconditionally. Used after conflict
// handling and after adopting a remote snapshot.
func (t *VersionTracker) UpdateKnownVersion(v int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.knownVersion = v
}

// IncrementKnownVersion advances by one after a successful local update
// save. The backing store increments its version by exactly 1 per write.
func (t *VersionTracker) IncrementKnownVersion() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.knownVersion++
}

func (t *VersionTracker) KnownVersion() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.knownVersion
}

// RecordSaveInstant notes when this client last wrote successfully.
func (t *VersionTracker) RecordSaveInstant(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSaveAt = at
}

// SavedWithin reports whether this client wrote within d of now.
func (t *VersionTracker) SavedWithin(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastSaveAt.IsZero() {
		return false
	}
	return time.Since(t.lastSaveAt) <= d
}

// CheckForConflict returns nil when we are not editing an existing entry
// or have no known version yet; otherwise it flags a conflict whenever the
// remote record carries a newer version than the one we incorporated.
func (t *VersionTracker) CheckForConflict(remote *models.Record, editingExisting bool) *ConflictCheck {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !editingExisting || t.knownVersion == 0 || remote == nil {
		return nil
	}
	return &ConflictCheck{
		HasConflict:    remote.Version > t.knownVersion,
		ConflictDevice: remote.LastEditedDevice,
		CurrentVersion: remote.Version,
		BaseVersion:    t.knownVersion,
	}
}

// IsExternalUpdate compares the record's writing device against this
// device. A mismatch means the version bump did not originate here.
// Identity lookup failures fall back to the sentinel so the comparison
// always runs.
func (t *VersionTracker) IsExternalUpdate(remote *models.Record) ExternalCheck {
	thisDevice := resolveDevice(t.device)
	return ExternalCheck{
		IsExternal: remote.LastEditedDevice != thisDevice,
		Device:     remote.LastEditedDevice,
		ThisDevice: thisDevice,
	}
}

// Device returns this device's identity, sentinel on failure.
func (t *VersionTracker) Device() string {
	return resolveDevice(t.device)
}
