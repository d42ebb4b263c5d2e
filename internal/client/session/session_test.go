package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabenodland/trace-sub002/internal/client/editor"
	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// -------- test fakes --------

type fakeTransport struct {
	mu sync.Mutex

	createID      string
	createVersion int64
	createErr     error
	createCalls   int
	createdFields []models.RecordFields

	updateVersion int64
	updateErr     error
	updateCalls   int
	updatedBase   []int64
	updatedFields []models.RecordFields

	getRecord *models.Record
	getErr    error

	persisted []models.Attachment

	// block, when set, stalls UpdateRecord until released. Used to hold a
	// save in flight.
	block chan struct{}

	watch chan *models.Record
}

func (f *fakeTransport) Close() error                                   { return nil }
func (f *fakeTransport) Register(ctx context.Context, u, p string) error { return nil }
func (f *fakeTransport) Login(ctx context.Context, u, p string) error    { return nil }
func (f *fakeTransport) Ping(ctx context.Context) error                  { return nil }

func (f *fakeTransport) CreateRecord(ctx context.Context, fields models.RecordFields) (string, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.createdFields = append(f.createdFields, fields)
	if f.createErr != nil {
		return "", 0, f.createErr
	}
	if f.createVersion == 0 {
		f.createVersion = 1
	}
	return f.createID, f.createVersion, nil
}

func (f *fakeTransport) UpdateRecord(ctx context.Context, id string, baseVersion int64, fields models.RecordFields) (int64, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.updatedBase = append(f.updatedBase, baseVersion)
	f.updatedFields = append(f.updatedFields, fields)
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	f.updateVersion = baseVersion + 1
	return f.updateVersion, nil
}

func (f *fakeTransport) DeleteRecord(ctx context.Context, id string) error { return nil }

func (f *fakeTransport) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getRecord, f.getErr
}

func (f *fakeTransport) PersistAttachmentRecord(ctx context.Context, att models.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted = append(f.persisted, att)
	return nil
}

func (f *fakeTransport) ListAttachments(ctx context.Context, entryID string) ([]models.Attachment, error) {
	return nil, nil
}

func (f *fakeTransport) Watch(ctx context.Context, device string) (<-chan *models.Record, error) {
	if f.watch == nil {
		f.watch = make(chan *models.Record)
	}
	return f.watch, nil
}

func (f *fakeTransport) snapshot() fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTransport{
		createCalls:   f.createCalls,
		updateCalls:   f.updateCalls,
		persisted:     append([]models.Attachment(nil), f.persisted...),
		updatedBase:   append([]int64(nil), f.updatedBase...),
		updatedFields: append([]models.RecordFields(nil), f.updatedFields...),
	}
}

type fakeNotifier struct {
	mu         sync.Mutex
	notices    []string
	alerts     []string
	saveErrors []string
	navigated  []string
}

func (n *fakeNotifier) Notice(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, msg)
}

func (n *fakeNotifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, msg)
}

func (n *fakeNotifier) SaveError(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saveErrors = append(n.saveErrors, msg)
}

func (n *fakeNotifier) NavigateAway(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.navigated = append(n.navigated, id)
}

type fakeAttachments struct {
	mu    sync.Mutex
	moved []models.Attachment
	errAt int // 1-based index of the move that fails; 0 = never
}

func (a *fakeAttachments) MovePending(ctx context.Context, tempID, realID string, p models.PendingAttachment) (models.Attachment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.errAt > 0 && len(a.moved)+1 == a.errAt {
		return models.Attachment{}, errors.New("storage move failed")
	}
	att := models.Attachment{
		ID:         p.ID,
		EntryID:    realID,
		StorageKey: "entries/" + realID + "/" + p.ID,
		MimeType:   p.MimeType,
		Position:   p.Position,
	}
	a.moved = append(a.moved, att)
	return att, nil
}

type fakeEditor struct {
	mu      sync.Mutex
	content string
	blurred bool
}

func (e *fakeEditor) GetContent() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

func (e *fakeEditor) SetContent(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.content = s
}

func (e *fakeEditor) Blur() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blurred = true
}

// -------- helpers --------

func existingRecord() *models.Record {
	return &models.Record{
		ID:               "e1",
		Version:          3,
		LastEditedDevice: "laptop",
		Title:            "A walk",
		Body:             "Around the lake",
		EntryTime:        time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newExistingSession(tr *fakeTransport, n *fakeNotifier, ed *fakeEditor) *Session {
	if tr.getRecord == nil {
		tr.getRecord = existingRecord()
	}
	p := Params{
		Transport: tr,
		Notifier:  n,
		Device:    editor.StaticIdentity("laptop"),
		Record:    existingRecord(),
		// Long timers so autosave never interferes with the scenario.
		Debounce: time.Hour,
		MaxWait:  time.Hour,
	}
	// Assigning a nil *fakeEditor to the interface field would make it
	// non-nil, so only set the surface when one is actually wired.
	if ed != nil {
		p.Editor = ed
	}
	return New(p)
}

// -------- save pipeline --------

func TestSave_NoDoubleSave(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{})}
	n := &fakeNotifier{}
	s := newExistingSession(tr, n, nil)
	require.NoError(t, s.UpdateField("title", "Another walk"))

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()

	// Wait until the first save is in flight.
	require.Eventually(t, s.IsSaving, time.Second, 5*time.Millisecond)

	// A second save while one is in flight is a no-op.
	require.NoError(t, s.Save(context.Background()))

	close(tr.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, tr.snapshot().updateCalls)
}

func TestSave_UpdateAdvancesKnownVersion(t *testing.T) {
	tr := &fakeTransport{}
	s := newExistingSession(tr, &fakeNotifier{}, nil)
	require.NoError(t, s.UpdateField("title", "Changed"))

	require.NoError(t, s.Save(context.Background()))

	st := tr.snapshot()
	require.Equal(t, 1, st.updateCalls)
	assert.Equal(t, []int64{3}, st.updatedBase)
	assert.False(t, s.IsFormDirty(), "successful save re-baselines")
	assert.False(t, s.IsSaving())
}

func TestSave_ConflictRoutesToConflictPending(t *testing.T) {
	tr := &fakeTransport{getRecord: &models.Record{
		ID: "e1", Version: 4, LastEditedDevice: "phone",
		Title: "Edited elsewhere", EntryTime: time.Now(),
	}}
	s := newExistingSession(tr, &fakeNotifier{}, nil)
	require.NoError(t, s.UpdateField("title", "Local edit"))

	require.NoError(t, s.Save(context.Background()))

	c := s.ActiveConflict()
	require.NotNil(t, c)
	assert.Equal(t, int64(4), c.RemoteVersion)
	assert.Equal(t, int64(3), c.BaseVersion)
	assert.Equal(t, "phone", c.Device)
	assert.Equal(t, 0, tr.snapshot().updateCalls, "write must not proceed past a conflict")
	assert.True(t, s.IsFormDirty(), "local changes stay put")
}

func TestSave_SameVersionNoConflict(t *testing.T) {
	tr := &fakeTransport{getRecord: existingRecord()} // version 3 == known
	s := newExistingSession(tr, &fakeNotifier{}, nil)
	require.NoError(t, s.UpdateField("title", "Local edit"))

	require.NoError(t, s.Save(context.Background()))

	assert.Nil(t, s.ActiveConflict())
	assert.Equal(t, 1, tr.snapshot().updateCalls)
}

func TestSave_EditorContentIsAuthoritative(t *testing.T) {
	tr := &fakeTransport{}
	ed := &fakeEditor{content: "keystrokes not yet in the snapshot"}
	s := newExistingSession(tr, &fakeNotifier{}, ed)
	require.NoError(t, s.UpdateField("title", "Changed"))

	require.NoError(t, s.Save(context.Background()))

	assert.Equal(t, "keystrokes not yet in the snapshot", s.FormData().Body)
}

func TestSave_EmptyNewRecordIsDeliberateNoOp(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	n := &fakeNotifier{}
	s := New(Params{Transport: tr, Notifier: n, Debounce: time.Hour, MaxWait: time.Hour})

	require.NoError(t, s.Save(context.Background()))

	assert.Equal(t, 0, tr.snapshot().createCalls)
	assert.Len(t, n.alerts, 1, "manual save of an empty entry explains itself")
}

func TestAutosave_FailureIsSwallowedAndStateStaysDirty(t *testing.T) {
	tr := &fakeTransport{updateErr: errors.New("network down")}
	n := &fakeNotifier{}
	s := newExistingSession(tr, n, nil)
	require.NoError(t, s.UpdateField("title", "Changed"))

	require.NoError(t, s.save(context.Background(), true))

	assert.Empty(t, n.saveErrors, "autosave failures are silent")
	assert.True(t, s.IsFormDirty(), "dirtiness persists so the next cycle retries")
}

func TestManualSave_FailureIsSurfaced(t *testing.T) {
	tr := &fakeTransport{updateErr: errors.New("network down")}
	n := &fakeNotifier{}
	s := newExistingSession(tr, n, nil)
	require.NoError(t, s.UpdateField("title", "Changed"))

	require.Error(t, s.Save(context.Background()))
	assert.Len(t, n.saveErrors, 1)
}

func TestAutosave_NeverSetsSubmitting(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{})}
	s := newExistingSession(tr, &fakeNotifier{}, nil)
	require.NoError(t, s.UpdateField("title", "Changed"))

	done := make(chan error, 1)
	go func() { done <- s.save(context.Background(), true) }()

	require.Eventually(t, s.IsSaving, time.Second, 5*time.Millisecond)
	assert.False(t, s.IsSubmitting(), "autosave must not disable user input")

	close(tr.block)
	require.NoError(t, <-done)
}

// -------- first save of a new entry --------

func TestFirstSave_CreatesAndRelocatesAttachments(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	att := &fakeAttachments{}
	s := New(Params{
		Transport:   tr,
		Attachments: att,
		Device:      editor.StaticIdentity("laptop"),
		Debounce:    time.Hour,
		MaxWait:     time.Hour,
	})

	require.NoError(t, s.UpdateField("title", "Beach day"))
	s.AddPendingPhoto(models.PendingAttachment{ID: "p1", LocalPath: "/tmp/a.jpg", MimeType: "image/jpeg"})
	s.AddPendingPhoto(models.PendingAttachment{ID: "p2", LocalPath: "/tmp/b.jpg", MimeType: "image/jpeg"})

	require.NoError(t, s.Save(context.Background()))

	assert.Equal(t, "X", s.EffectiveID())
	assert.Empty(t, s.FormData().PendingPhotos, "pending list clears after relocation")

	st := tr.snapshot()
	require.Len(t, st.persisted, 2)
	for _, a := range st.persisted {
		assert.Equal(t, "X", a.EntryID)
	}
	require.Len(t, att.moved, 2)
	assert.False(t, s.IsFormDirty())
}

func TestFirstSave_PartialRelocationKeepsRemainderPending(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	att := &fakeAttachments{errAt: 2}
	n := &fakeNotifier{}
	s := New(Params{
		Transport:   tr,
		Attachments: att,
		Notifier:    n,
		Device:      editor.StaticIdentity("laptop"),
		Debounce:    time.Hour,
		MaxWait:     time.Hour,
	})

	require.NoError(t, s.UpdateField("title", "Beach day"))
	s.AddPendingPhoto(models.PendingAttachment{ID: "p1", LocalPath: "/tmp/a.jpg"})
	s.AddPendingPhoto(models.PendingAttachment{ID: "p2", LocalPath: "/tmp/b.jpg"})

	require.Error(t, s.Save(context.Background()))

	// The create is not rolled back: the entry exists, the first photo
	// stays moved, the second stays pending for the next save.
	assert.Equal(t, "X", s.EffectiveID())
	require.Len(t, s.FormData().PendingPhotos, 1)
	assert.Equal(t, "p2", s.FormData().PendingPhotos[0].ID)
	assert.Len(t, att.moved, 1)
}

func TestSecondSave_RetriesStrandedPendingPhotos(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	att := &fakeAttachments{errAt: 2}
	s := New(Params{
		Transport:   tr,
		Attachments: att,
		Notifier:    &fakeNotifier{},
		Device:      editor.StaticIdentity("laptop"),
		Debounce:    time.Hour,
		MaxWait:     time.Hour,
	})

	require.NoError(t, s.UpdateField("title", "Beach day"))
	s.AddPendingPhoto(models.PendingAttachment{ID: "p1", LocalPath: "/tmp/a.jpg"})
	s.AddPendingPhoto(models.PendingAttachment{ID: "p2", LocalPath: "/tmp/b.jpg"})

	// First save creates the entry but strands p2 when the second move fails.
	require.Error(t, s.Save(context.Background()))
	require.Len(t, s.FormData().PendingPhotos, 1)

	// Storage recovers; the next save moves the remainder.
	att.mu.Lock()
	att.errAt = 0
	att.mu.Unlock()

	require.NoError(t, s.Save(context.Background()))

	assert.Empty(t, s.FormData().PendingPhotos)
	require.Len(t, att.moved, 2)
	assert.Equal(t, "X", att.moved[1].EntryID)
	st := tr.snapshot()
	require.Len(t, st.persisted, 2)
	assert.Equal(t, 1, st.updateCalls)
	assert.False(t, s.IsFormDirty())
}

func TestFirstSave_DerivesTagsAndMentions(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	s := New(Params{
		Transport: tr,
		Device:    editor.StaticIdentity("laptop"),
		Debounce:  time.Hour,
		MaxWait:   time.Hour,
	})

	require.NoError(t, s.UpdateField("body", "coffee with @anna #friends"))
	require.NoError(t, s.Save(context.Background()))

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.createdFields, 1)
	assert.Equal(t, []string{"friends"}, tr.createdFields[0].Tags)
	assert.Equal(t, []string{"anna"}, tr.createdFields[0].Mentions)
	assert.Equal(t, "laptop", tr.createdFields[0].Device)
}

type fakeLocations struct {
	mu       sync.Mutex
	id       string
	err      error
	resolved []models.Location
}

func (l *fakeLocations) Resolve(ctx context.Context, loc models.Location) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolved = append(l.resolved, loc)
	return l.id, l.err
}

func TestSave_ResolvesNamedLocation(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	locs := &fakeLocations{id: "loc-9"}
	s := New(Params{
		Transport: tr,
		Locations: locs,
		Device:    editor.StaticIdentity("laptop"),
		Debounce:  time.Hour,
		MaxWait:   time.Hour,
	})

	require.NoError(t, s.UpdateField("title", "Lakeside"))
	require.NoError(t, s.UpdateField("location", &models.Location{Latitude: 56.95, Longitude: 24.1, Name: "The lake"}))
	require.NoError(t, s.Save(context.Background()))

	locs.mu.Lock()
	require.Len(t, locs.resolved, 1)
	locs.mu.Unlock()

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.createdFields, 1)
	require.NotNil(t, tr.createdFields[0].Location)
	assert.Equal(t, "loc-9", tr.createdFields[0].Location.SavedLocationID)
	// the live snapshot carries the linkage too, so the next save does not
	// resolve again
	snap := s.FormData()
	require.NotNil(t, snap.Location)
	assert.Equal(t, "loc-9", snap.Location.SavedLocationID)
}

func TestSave_LocationResolveFailureDoesNotFailSave(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	locs := &fakeLocations{err: errors.New("geocoder down")}
	s := New(Params{
		Transport: tr,
		Locations: locs,
		Device:    editor.StaticIdentity("laptop"),
		Debounce:  time.Hour,
		MaxWait:   time.Hour,
	})

	require.NoError(t, s.UpdateField("title", "Lakeside"))
	require.NoError(t, s.UpdateField("location", &models.Location{Name: "The lake"}))
	require.NoError(t, s.Save(context.Background()))

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.createdFields, 1)
	require.NotNil(t, tr.createdFields[0].Location)
	assert.Empty(t, tr.createdFields[0].Location.SavedLocationID)
}

// -------- leave-screen path --------

func TestHandleBack_EmptyNewSessionMakesNoCreateCall(t *testing.T) {
	tr := &fakeTransport{createID: "X"}
	s := New(Params{Transport: tr, Debounce: time.Hour, MaxWait: time.Hour})

	require.NoError(t, s.HandleBack(context.Background()))

	assert.Equal(t, 0, tr.snapshot().createCalls)
}

func TestHandleBack_DirtyExistingEntrySaves(t *testing.T) {
	tr := &fakeTransport{}
	s := newExistingSession(tr, &fakeNotifier{}, nil)
	require.NoError(t, s.UpdateField("title", "Changed"))

	require.NoError(t, s.HandleBack(context.Background()))

	assert.Equal(t, 1, tr.snapshot().updateCalls)
}
