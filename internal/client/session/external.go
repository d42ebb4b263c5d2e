package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// recentOwnSaveWindow is how far back a local write still counts as
// "recent" when a remote snapshot replaces it: inside this window the
// adoption may have clobbered our own just-written change, so the user
// gets a blocking acknowledgment instead of a passive notice.
const recentOwnSaveWindow = 30 * time.Second

// HandleRemoteChange reacts to a "record changed remotely" notification.
// It either adopts the remote state, raises a non-destructive warning, or
// does nothing, but it never overwrites unsaved local work.
func (s *Session) HandleRemoteChange(remote *models.Record) {
	if remote == nil {
		return
	}
	ctx := context.Background()

	// Race guard: the saving flag and the reconciliation share one
	// critical section, so a save cannot start mid-adoption and a
	// notification arriving between our write and its acknowledgment
	// never overwrites the not-yet-acknowledged state. Notifier calls
	// can block on user input and wait until the lock is released.
	s.mu.Lock()
	if s.isSaving {
		s.mu.Unlock()
		s.log.Debug(ctx, "remote change ignored, save in flight", "entry_id", remote.ID)
		return
	}
	adopted, msg, blocking := s.reconcileRemote(ctx, remote)
	s.mu.Unlock()

	if adopted {
		s.sched.Cancel()
	}
	switch {
	case msg == "":
	case blocking:
		s.notifier.Alert(msg)
	default:
		s.notifier.Notice(msg)
	}
}

// reconcileRemote applies a remote record to local state. Callers hold
// s.mu. It reports whether the remote snapshot was adopted and the
// message owed to the user; blocking means an acknowledgment is required
// rather than a passive notice.
func (s *Session) reconcileRemote(ctx context.Context, remote *models.Record) (adopted bool, msg string, blocking bool) {
	// First observation: just learn the version, nothing to reconcile.
	if s.versions.KnownVersion() == 0 {
		s.versions.InitializeVersion(remote.Version)
		return false, "", false
	}

	// Stale or duplicate notification.
	if remote.Version <= s.versions.KnownVersion() {
		return false, "", false
	}

	s.versions.UpdateKnownVersion(remote.Version)

	ext := s.versions.IsExternalUpdate(remote)
	if !ext.IsExternal {
		// Echo of our own earlier save arriving late.
		s.log.Debug(ctx, "own echo suppressed", "entry_id", remote.ID, "version", remote.Version)
		return false, "", false
	}

	if s.store.IsDirty() {
		// Never clobber unsaved local work; tell the user and leave the
		// snapshot alone.
		return false, fmt.Sprintf(
			"This entry was updated on %s. You have unsaved changes here.", ext.Device), false
	}

	// Clean local state: adopt the remote snapshot wholesale. Baseline is
	// set to the same rebuilt snapshot so the adoption itself never reads
	// as dirty.
	snap := remote.Snapshot()
	s.store.Replace(snap)
	s.store.SetBaseline(snap)

	if s.surface != nil {
		s.surface.SetContent(snap.Body)
		s.surface.Blur()
	}

	s.log.Info(ctx, "adopted remote update",
		"entry_id", remote.ID, "version", remote.Version, "device", ext.Device)

	if s.versions.SavedWithin(recentOwnSaveWindow) {
		// We wrote moments ago; this adoption may have replaced that
		// write. Demand an acknowledgment rather than a passive notice.
		return true, fmt.Sprintf(
			"This entry was just updated on %s, replacing a change saved from this device.", ext.Device), true
	}
	return true, fmt.Sprintf("This entry was updated on %s.", ext.Device), false
}
