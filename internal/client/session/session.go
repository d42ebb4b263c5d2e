// Package session wires the editing state, the autosave scheduler, and the
// transport into one edit session per open entry. The session is the only
// writer to the backing store and the single boundary that decides whether
// a failure is shown to the user.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabenodland/trace-sub002/internal/client/client"
	"github.com/gabenodland/trace-sub002/internal/client/editor"
	"github.com/gabenodland/trace-sub002/internal/client/models"
	"github.com/gabenodland/trace-sub002/internal/logging"
)

// AttachmentStore relocates a pending attachment from temp-keyed storage to
// storage keyed by the real entry id. The move is a move, not a copy: a
// partial failure must not leave duplicates behind.
type AttachmentStore interface {
	MovePending(ctx context.Context, tempID, realID string, att models.PendingAttachment) (models.Attachment, error)
}

// LocationResolver resolves a named location to a saved-location id,
// creating one when none exists.
type LocationResolver interface {
	Resolve(ctx context.Context, loc models.Location) (string, error)
}

// DraftStore is the local crash-recovery cache for unsaved snapshots.
type DraftStore interface {
	Save(ctx context.Context, key string, snap models.EntrySnapshot) error
	Delete(ctx context.Context, key string) error
	Load(ctx context.Context, key string) (*models.EntrySnapshot, error)
}

// Notifier is how the session surfaces messages to the presentation layer.
type Notifier interface {
	// Notice shows a passive, non-blocking message.
	Notice(msg string)
	// Alert shows a blocking acknowledgment dialog.
	Alert(msg string)
	// SaveError reports a manual-save failure.
	SaveError(msg string)
	// NavigateAway asks the UI to leave the current entry, e.g. after a
	// conflict fork created a new one.
	NavigateAway(entryID string)
}

type nopNotifier struct{}

func (nopNotifier) Notice(string)       {}
func (nopNotifier) Alert(string)        {}
func (nopNotifier) SaveError(string)    {}
func (nopNotifier) NavigateAway(string) {}

// Params configures a Session. Transport is required; the rest default to
// no-ops so tests and headless callers can leave them nil.
type Params struct {
	Logger      logging.Logger
	Transport   client.Client
	Attachments AttachmentStore
	Locations   LocationResolver
	Drafts      DraftStore
	Notifier    Notifier
	Editor      editor.ContentEditor
	Device      editor.DeviceIdentityProvider

	// Record is the persisted entry being opened, nil for a brand-new one.
	Record *models.Record

	// AttachmentCount seeds the side channel for existing entries.
	AttachmentCount int

	Debounce time.Duration
	MaxWait  time.Duration
}

// Session is one edit session over one logical entry.
type Session struct {
	mu sync.Mutex

	log         logging.Logger
	store       *editor.SnapshotStore
	versions    *editor.VersionTracker
	sched       *editor.AutosaveScheduler
	transport   client.Client
	attachments AttachmentStore
	locations   LocationResolver
	drafts      DraftStore
	notifier    Notifier
	surface     editor.ContentEditor

	// tempID is generated once at session start and never reused;
	// persistedID is assigned exactly once on first successful create.
	tempID      string
	persistedID string

	isSaving     bool
	isSubmitting bool
	closed       bool

	activeConflict *Conflict

	watchCancel context.CancelFunc
}

func New(p Params) *Session {
	if p.Logger == nil {
		p.Logger = logging.Nop()
	}
	if p.Notifier == nil {
		p.Notifier = nopNotifier{}
	}
	if p.Device == nil {
		p.Device = editor.HostnameIdentity{}
	}

	s := &Session{
		log:         p.Logger.With("module", "session"),
		transport:   p.Transport,
		attachments: p.Attachments,
		locations:   p.Locations,
		drafts:      p.Drafts,
		notifier:    p.Notifier,
		surface:     p.Editor,
		tempID:      uuid.NewString(),
	}

	s.versions = editor.NewVersionTracker(p.Device)

	if p.Record != nil {
		s.persistedID = p.Record.ID
		s.store = editor.NewSnapshotStore(p.Record.Snapshot(), true)
		s.store.SetAttachmentCount(p.AttachmentCount)
		s.store.RebaseAttachmentCount()
		s.versions.InitializeVersion(p.Record.Version)
	} else {
		s.store = editor.NewSnapshotStore(models.EntrySnapshot{EntryTime: time.Now()}, false)
	}

	s.sched = editor.NewAutosaveScheduler(p.Debounce, p.MaxWait, s.autosaveEligible, s.autosaveFire, p.Logger)

	return s
}

// EffectiveID is the id used for reads and writes: the persisted id once
// the entry exists, empty before that.
func (s *Session) EffectiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistedID
}

// TempID is the client-generated id pending attachments are keyed under
// before the first save.
func (s *Session) TempID() string {
	return s.tempID
}

func (s *Session) draftKey() string {
	if id := s.EffectiveID(); id != "" {
		return id
	}
	return s.tempID
}

// FormData returns a copy of the live snapshot for the presentation layer.
func (s *Session) FormData() models.EntrySnapshot {
	return s.store.Snapshot()
}

func (s *Session) IsFormDirty() bool { return s.store.IsFormDirty() }

func (s *Session) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSaving
}

func (s *Session) IsSubmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSubmitting
}

// ActiveConflict returns the pending conflict, nil when there is none.
func (s *Session) ActiveConflict() *Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConflict
}

// UpdateField shallow-merges one field into the snapshot and notes the
// edit with the autosave scheduler.
func (s *Session) UpdateField(name string, value any) error {
	if err := s.store.UpdateField(name, value); err != nil {
		return err
	}
	s.afterMutation()
	return nil
}

// UpdateFields applies a partial update.
func (s *Session) UpdateFields(fields map[string]any) error {
	if err := s.store.UpdateFields(fields); err != nil {
		return err
	}
	s.afterMutation()
	return nil
}

// OnEditorChange is the editor surface's change callback.
func (s *Session) OnEditorChange(content string) {
	s.store.SetBody(content)
	s.afterMutation()
}

// AddPendingPhoto queues an attachment for a never-saved entry.
func (s *Session) AddPendingPhoto(p models.PendingAttachment) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.store.AddPendingPhoto(p)
	s.afterMutation()
}

// NoteAttachmentCount updates the side channel for existing entries whose
// attachments persist immediately, outside the pending list.
func (s *Session) NoteAttachmentCount(n int) {
	s.store.SetAttachmentCount(n)
	s.afterMutation()
}

// MarkClean re-baselines to the current snapshot.
func (s *Session) MarkClean() {
	s.store.MarkClean()
}

func (s *Session) afterMutation() {
	if s.drafts != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := s.drafts.Save(ctx, s.draftKey(), s.store.Snapshot()); err != nil {
			s.log.Warn(ctx, "draft save failed", "error", err)
		}
		cancel()
	}
	s.sched.NoteEdit()
}

func (s *Session) autosaveEligible() bool {
	s.mu.Lock()
	saving := s.isSaving || s.isSubmitting
	closed := s.closed
	s.mu.Unlock()

	if closed || saving || !s.store.IsFormDirty() {
		return false
	}
	// Brand-new entries only autosave once there is something worth
	// persisting; existing entries autosave on any dirty change, metadata
	// included.
	if !s.store.IsEditing() {
		return s.store.Snapshot().HasUserContent()
	}
	return true
}

func (s *Session) autosaveFire() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = s.save(ctx, true)
}

// StartWatch subscribes to the remote-change stream and routes events for
// this entry into HandleRemoteChange. It returns immediately; the stream
// runs until Close or ctx cancellation.
func (s *Session) StartWatch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	ch, err := s.transport.Watch(ctx, s.versions.Device())
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.watchCancel = cancel
	s.mu.Unlock()

	go func() {
		for rec := range ch {
			if rec.ID == "" || rec.ID != s.EffectiveID() {
				continue
			}
			s.HandleRemoteChange(rec)
		}
	}()
	return nil
}

// HandleBack runs the leave-screen path: a final manual save when there is
// something to persist, then teardown. A brand-new empty session leaves
// without ever touching the store.
func (s *Session) HandleBack(ctx context.Context) error {
	s.sched.Cancel()

	var err error
	if s.store.IsFormDirty() && (s.store.IsEditing() || s.store.Snapshot().HasUserContent()) {
		err = s.save(ctx, false)
	}

	s.Close()
	return err
}

// Close tears the session down: timers cancelled, watch stopped. An
// in-flight save is not cancelled; it runs to completion or failure.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	cancel := s.watchCancel
	s.watchCancel = nil
	s.mu.Unlock()

	s.sched.Cancel()
	if cancel != nil {
		cancel()
	}
}
