package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

func remoteRecord(version int64, device string) *models.Record {
	return &models.Record{
		ID:               "e1",
		Version:          version,
		LastEditedDevice: device,
		Title:            "Remote title",
		Body:             "Remote body",
		EntryTime:        time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandleRemoteChange_CleanStateAdoptsRemote(t *testing.T) {
	tr := &fakeTransport{}
	n := &fakeNotifier{}
	ed := &fakeEditor{}
	s := newExistingSession(tr, n, ed)

	s.HandleRemoteChange(remoteRecord(4, "phone"))

	got := s.FormData()
	assert.Equal(t, "Remote title", got.Title)
	assert.Equal(t, "Remote body", got.Body)
	assert.False(t, s.IsFormDirty(), "adoption must not read as dirty")
	assert.Equal(t, "Remote body", ed.content)
	assert.True(t, ed.blurred)
	require.Len(t, n.notices, 1)
	assert.Contains(t, n.notices[0], "phone")
}

func TestHandleRemoteChange_DirtyStateKeepsLocalWork(t *testing.T) {
	tr := &fakeTransport{}
	n := &fakeNotifier{}
	s := newExistingSession(tr, n, nil)
	require.NoError(t, s.UpdateField("title", "Local edit"))

	s.HandleRemoteChange(remoteRecord(4, "phone"))

	assert.Equal(t, "Local edit", s.FormData().Title, "unsaved work survives")
	assert.True(t, s.IsFormDirty())
	require.Len(t, n.notices, 1)
	assert.Contains(t, n.notices[0], "unsaved changes")

	// The version was still learned: a later save against it conflicts.
	tr.mu.Lock()
	tr.getRecord = remoteRecord(4, "phone")
	tr.mu.Unlock()
	require.NoError(t, s.Save(context.Background()))
	assert.Nil(t, s.ActiveConflict(), "known version already caught up, save proceeds")
	assert.Equal(t, []int64{4}, tr.snapshot().updatedBase)
}

func TestHandleRemoteChange_OwnEchoSuppressed(t *testing.T) {
	tr := &fakeTransport{}
	n := &fakeNotifier{}
	s := newExistingSession(tr, n, nil)
	require.NoError(t, s.UpdateField("title", "Local edit"))

	// Same device name as this session.
	s.HandleRemoteChange(remoteRecord(4, "laptop"))

	assert.Equal(t, "Local edit", s.FormData().Title)
	assert.Empty(t, n.notices)
	assert.Empty(t, n.alerts)
}

func TestHandleRemoteChange_StaleVersionIgnored(t *testing.T) {
	n := &fakeNotifier{}
	s := newExistingSession(&fakeTransport{}, n, nil)

	s.HandleRemoteChange(remoteRecord(3, "phone")) // == known
	s.HandleRemoteChange(remoteRecord(2, "phone")) // < known

	assert.Equal(t, "A walk", s.FormData().Title)
	assert.Empty(t, n.notices)
}

func TestHandleRemoteChange_IgnoredWhileSaveInFlight(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{})}
	n := &fakeNotifier{}
	s := newExistingSession(tr, n, nil)
	require.NoError(t, s.UpdateField("title", "Local edit"))

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()
	require.Eventually(t, s.IsSaving, time.Second, 5*time.Millisecond)

	s.HandleRemoteChange(remoteRecord(9, "phone"))

	close(tr.block)
	require.NoError(t, <-done)

	assert.Equal(t, "Local edit", s.FormData().Title, "in-flight state untouched")
	assert.Empty(t, n.notices)
	assert.Equal(t, int64(4), s.versions.KnownVersion(), "version from the save ack, not the notification")
}

// A remote notification and a save racing each other must serialize:
// whichever wins, the write carries a base version and body from one
// consistent state, never a half-adopted mix.
func TestHandleRemoteChange_AdoptionSerializesWithSaveStart(t *testing.T) {
	for i := 0; i < 25; i++ {
		tr := &fakeTransport{}
		s := newExistingSession(tr, &fakeNotifier{}, nil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HandleRemoteChange(remoteRecord(4, "phone"))
		}()
		saveErr := make(chan error, 1)
		go func() { saveErr <- s.Save(context.Background()) }()
		require.NoError(t, <-saveErr)
		wg.Wait()

		st := tr.snapshot()
		require.Equal(t, 1, st.updateCalls)
		switch st.updatedBase[0] {
		case 4:
			// Adoption completed before the save pipeline read its state.
			assert.Equal(t, "Remote body", st.updatedFields[0].Body)
		case 3:
			// The save won the flag; the notification was ignored or stale.
			assert.Equal(t, "Around the lake", st.updatedFields[0].Body)
		default:
			t.Fatalf("update against unexpected base version %d", st.updatedBase[0])
		}
		assert.Equal(t, st.updatedBase[0]+1, s.versions.KnownVersion())
		assert.False(t, s.IsFormDirty())
	}
}

func TestHandleRemoteChange_RecentOwnSaveEscalatesToAlert(t *testing.T) {
	n := &fakeNotifier{}
	s := newExistingSession(&fakeTransport{}, n, nil)
	s.versions.RecordSaveInstant(time.Now())

	s.HandleRemoteChange(remoteRecord(4, "phone"))

	assert.Empty(t, n.notices)
	require.Len(t, n.alerts, 1)
	assert.Contains(t, n.alerts[0], "replacing a change saved from this device")
}

func TestHandleRemoteChange_NilRecordIsNoOp(t *testing.T) {
	s := newExistingSession(&fakeTransport{}, &fakeNotifier{}, nil)
	s.HandleRemoteChange(nil)
	assert.Equal(t, int64(3), s.versions.KnownVersion())
}
