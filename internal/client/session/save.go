package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// Save is the manual save entry point exposed to the UI.
func (s *Session) Save(ctx context.Context) error {
	return s.save(ctx, false)
}

// save runs the orchestrated pipeline: guard, conflict check, performSave.
// Autosaves never set the submitting flag, so they never disable user
// input, and their failures are swallowed: the entry stays dirty and the
// next debounce cycle retries naturally.
func (s *Session) save(ctx context.Context, isAutosave bool) error {
	s.mu.Lock()
	if s.isSaving {
		s.mu.Unlock()
		return nil
	}
	s.isSaving = true
	if !isAutosave {
		s.isSubmitting = true
	}
	s.mu.Unlock()

	s.sched.Cancel()

	defer func() {
		s.mu.Lock()
		s.isSaving = false
		if !isAutosave {
			s.isSubmitting = false
		}
		s.mu.Unlock()
	}()

	if s.store.IsEditing() {
		remote, err := s.transport.GetRecord(ctx, s.EffectiveID())
		if err != nil {
			return s.failSave(ctx, isAutosave, fmt.Errorf("conflict check: %w", err))
		}
		if check := s.versions.CheckForConflict(remote, true); check != nil && check.HasConflict {
			s.mu.Lock()
			s.activeConflict = &Conflict{
				Remote:        remote,
				Device:        check.ConflictDevice,
				RemoteVersion: check.CurrentVersion,
				BaseVersion:   check.BaseVersion,
			}
			s.mu.Unlock()
			s.log.Info(ctx, "version conflict detected",
				"entry_id", remote.ID, "remote_version", check.CurrentVersion,
				"base_version", check.BaseVersion, "device", check.ConflictDevice)
			return nil
		}
	}

	return s.performSave(ctx, isAutosave)
}

// performSave runs the write itself. Callers hold the saving flag.
func (s *Session) performSave(ctx context.Context, isAutosave bool) error {
	// The editor surface is authoritative: keystrokes that have not yet
	// propagated into the snapshot must not be lost.
	if s.surface != nil {
		s.store.SetBody(s.surface.GetContent())
	}

	snap := s.store.Snapshot()

	if !s.store.IsEditing() && !snap.HasUserContent() {
		if !isAutosave {
			s.notifier.Alert("Nothing to save yet. Add a title, some text, or a photo.")
		}
		return nil
	}

	s.resolveLocation(ctx, &snap)

	fields := s.deriveFields(snap)

	if s.store.IsEditing() {
		// A partial relocation on an earlier save leaves photos pending;
		// they are moved here before the update so the entry never rests
		// clean with attachments still in temp storage.
		if err := s.relocatePending(ctx, s.EffectiveID(), snap.PendingPhotos); err != nil {
			return s.failSave(ctx, isAutosave, fmt.Errorf("attachment relocation: %w", err))
		}
		if err := s.saveExisting(ctx, fields); err != nil {
			return s.failSave(ctx, isAutosave, err)
		}
	} else {
		if err := s.saveNew(ctx, snap, fields); err != nil {
			return s.failSave(ctx, isAutosave, err)
		}
	}

	s.store.MarkClean()
	s.store.RebaseAttachmentCount()
	s.versions.RecordSaveInstant(time.Now())
	s.clearDraft(ctx)

	s.log.Info(ctx, "save complete",
		"entry_id", s.EffectiveID(), "version", s.versions.KnownVersion(), "autosave", isAutosave)
	return nil
}

func (s *Session) saveExisting(ctx context.Context, fields models.RecordFields) error {
	if _, err := s.transport.UpdateRecord(ctx, s.EffectiveID(), s.versions.KnownVersion(), fields); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	// The store bumps its version by exactly one per write.
	s.versions.IncrementKnownVersion()
	return nil
}

func (s *Session) saveNew(ctx context.Context, snap models.EntrySnapshot, fields models.RecordFields) error {
	id, version, err := s.transport.CreateRecord(ctx, fields)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	s.mu.Lock()
	s.persistedID = id
	s.mu.Unlock()
	s.store.SetEditing(true)
	s.versions.InitializeVersion(version)

	if err := s.relocatePending(ctx, id, snap.PendingPhotos); err != nil {
		// The entry itself is created; relocation picks the pending list
		// back up on the next save.
		return fmt.Errorf("attachment relocation: %w", err)
	}
	return nil
}

// relocatePending moves every pending attachment from temp-keyed storage
// to storage keyed by the real entry id and persists its record. Moved
// attachments are removed from the pending list one by one, so a failure
// mid-loop strands no duplicates: what moved stays moved, the remainder
// stays pending.
func (s *Session) relocatePending(ctx context.Context, realID string, pending []models.PendingAttachment) error {
	if len(pending) == 0 || s.attachments == nil {
		return nil
	}

	moved := 0
	for _, p := range pending {
		att, err := s.relocateOne(ctx, realID, p)
		if err != nil {
			s.dropMovedPending(moved)
			return err
		}
		if err := s.transport.PersistAttachmentRecord(ctx, att); err != nil {
			s.dropMovedPending(moved)
			return err
		}
		moved++
	}

	s.store.ClearPendingPhotos()
	s.store.SetAttachmentCount(s.store.AttachmentCount() + moved)
	return nil
}

func (s *Session) relocateOne(ctx context.Context, realID string, p models.PendingAttachment) (models.Attachment, error) {
	return s.attachments.MovePending(ctx, s.tempID, realID, p)
}

// dropMovedPending trims the first n entries off the pending list after a
// partial relocation.
func (s *Session) dropMovedPending(n int) {
	if n == 0 {
		return
	}
	rest := s.store.PendingPhotos()[n:]
	s.store.ClearPendingPhotos()
	for _, p := range rest {
		s.store.AddPendingPhoto(p)
	}
	s.store.SetAttachmentCount(s.store.AttachmentCount() + n)
}

// resolveLocation fills in a saved-location linkage when the snapshot
// carries named-location data without one. Resolution failures are not
// save failures; the entry saves without the linkage.
func (s *Session) resolveLocation(ctx context.Context, snap *models.EntrySnapshot) {
	if s.locations == nil || snap.Location == nil {
		return
	}
	if snap.Location.Name == "" || snap.Location.SavedLocationID != "" {
		return
	}

	id, err := s.locations.Resolve(ctx, *snap.Location)
	if err != nil {
		s.log.Warn(ctx, "location resolve failed", "name", snap.Location.Name, "error", err)
		return
	}

	loc := snap.Location.Clone()
	loc.SavedLocationID = id
	snap.Location = loc
	if err := s.store.UpdateField("location", loc.Clone()); err != nil {
		s.log.Warn(ctx, "location update failed", "error", err)
	}
}

// deriveFields computes the transport payload from a snapshot. Pure with
// respect to session state.
func (s *Session) deriveFields(snap models.EntrySnapshot) models.RecordFields {
	return models.RecordFields{
		Title:      snap.Title,
		Body:       snap.Body,
		StreamID:   snap.StreamID,
		StreamName: snap.StreamName,
		Status:     snap.Status,
		EntryType:  snap.EntryType,
		DueDate:    snap.DueDate,
		Rating:     snap.Rating,
		Priority:   snap.Priority,
		EntryTime:  snap.EntryTime,
		ShowTime:   snap.ShowTime,
		Location:   snap.Location.Clone(),
		Tags:       models.ExtractTags(snap.Body),
		Mentions:   models.ExtractMentions(snap.Body),
		Device:     s.versions.Device(),
	}
}

// failSave applies the visibility rule: manual failures reach the user,
// autosave failures are logged and swallowed.
func (s *Session) failSave(ctx context.Context, isAutosave bool, err error) error {
	if isAutosave {
		s.log.Warn(ctx, "autosave failed", "error", err)
		return nil
	}
	s.log.Error(ctx, "save failed", "error", err)
	s.notifier.SaveError("Could not save your entry: " + err.Error())
	return err
}

func (s *Session) clearDraft(ctx context.Context) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.Delete(ctx, s.draftKey()); err != nil {
		s.log.Warn(ctx, "draft delete failed", "error", err)
	}
	// A create switches the draft key from tempID to the persisted id;
	// sweep the temp-keyed draft too.
	if s.EffectiveID() != "" {
		_ = s.drafts.Delete(ctx, s.tempID)
	}
}
