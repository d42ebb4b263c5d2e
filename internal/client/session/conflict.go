package session

import (
	"context"
	"fmt"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// Conflict is the payload surfaced when a save hits a version conflict.
// It stays active until one of the Resolve methods runs; dismissing it
// leaves the session in the conflict-pending state and the user must
// re-trigger a save later.
type Conflict struct {
	Remote        *models.Record
	Device        string
	RemoteVersion int64
	BaseVersion   int64
}

func (s *Session) takeConflict() *Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.activeConflict
	s.activeConflict = nil
	return c
}

// ResolveDiscardLocal throws the local changes away and adopts the remote
// record's fields into both snapshot and baseline.
func (s *Session) ResolveDiscardLocal(ctx context.Context) error {
	c := s.takeConflict()
	if c == nil || c.Remote == nil {
		return nil
	}

	snap := c.Remote.Snapshot()
	s.store.Replace(snap)
	s.store.SetBaseline(snap)
	s.versions.UpdateKnownVersion(c.Remote.Version)
	s.sched.Cancel()

	if s.surface != nil {
		s.surface.SetContent(snap.Body)
	}

	s.log.Info(ctx, "conflict resolved: discarded local changes",
		"entry_id", c.Remote.ID, "version", c.Remote.Version)
	return nil
}

// ResolveSaveAsCopy forks: the conflicting local snapshot becomes a
// brand-new entry and the original remote record is left untouched. On
// success the UI is asked to navigate to the new entry.
func (s *Session) ResolveSaveAsCopy(ctx context.Context) error {
	c := s.takeConflict()
	if c == nil {
		return nil
	}

	if s.surface != nil {
		s.store.SetBody(s.surface.GetContent())
	}
	snap := s.store.Snapshot()
	fields := s.deriveFields(snap)
	fields.Title = copyTitle(fields.Title)

	id, _, err := s.transport.CreateRecord(ctx, fields)
	if err != nil {
		// Put the conflict back; nothing was resolved.
		s.mu.Lock()
		s.activeConflict = c
		s.mu.Unlock()
		s.notifier.SaveError("Could not save a copy: " + err.Error())
		return fmt.Errorf("fork create: %w", err)
	}

	s.log.Info(ctx, "conflict resolved: forked entry", "new_entry_id", id)
	s.notifier.NavigateAway(id)
	s.Close()
	return nil
}

// ResolveKeepMine overwrites the remote state with the local snapshot. The
// known version is first raised to the remote version so the same conflict
// is not re-detected, then the normal save pipeline runs and wins.
func (s *Session) ResolveKeepMine(ctx context.Context) error {
	c := s.takeConflict()
	if c == nil {
		return nil
	}

	s.versions.UpdateKnownVersion(c.RemoteVersion)
	s.log.Info(ctx, "conflict resolved: keeping local changes",
		"entry_id", s.EffectiveID(), "version", c.RemoteVersion)
	return s.save(ctx, false)
}

// DismissConflict is the implicit fourth option: nothing changes, the
// conflict stays pending.
func (s *Session) DismissConflict() {
	// Intentionally no state change.
}

func copyTitle(title string) string {
	if title == "" {
		return "Copy"
	}
	return title + " (copy)"
}
