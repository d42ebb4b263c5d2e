package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// conflictedSession returns a session whose save just detected a newer
// remote version, leaving it in the conflict-pending state.
func conflictedSession(t *testing.T, tr *fakeTransport, n *fakeNotifier, ed *fakeEditor) *Session {
	t.Helper()
	if tr.getRecord == nil {
		tr.getRecord = remoteRecord(4, "phone")
	}
	s := newExistingSession(tr, n, ed)
	require.NoError(t, s.UpdateField("title", "Local edit"))
	require.NoError(t, s.Save(context.Background()))
	require.NotNil(t, s.ActiveConflict())
	return s
}

func TestResolveDiscardLocal(t *testing.T) {
	tr := &fakeTransport{}
	ed := &fakeEditor{}
	s := conflictedSession(t, tr, &fakeNotifier{}, ed)

	require.NoError(t, s.ResolveDiscardLocal(context.Background()))

	assert.Nil(t, s.ActiveConflict())
	assert.Equal(t, "Remote title", s.FormData().Title)
	assert.False(t, s.IsFormDirty())
	assert.Equal(t, "Remote body", ed.content)
	assert.Equal(t, int64(4), s.versions.KnownVersion())
	assert.Equal(t, 0, tr.snapshot().updateCalls, "discarding never writes")
}

func TestResolveKeepMine(t *testing.T) {
	tr := &fakeTransport{}
	s := conflictedSession(t, tr, &fakeNotifier{}, nil)

	require.NoError(t, s.ResolveKeepMine(context.Background()))

	assert.Nil(t, s.ActiveConflict())
	st := tr.snapshot()
	require.Equal(t, 1, st.updateCalls)
	assert.Equal(t, []int64{4}, st.updatedBase, "writes against the remote version, not the stale base")
	assert.Equal(t, int64(5), s.versions.KnownVersion())
	assert.Equal(t, "Local edit", s.FormData().Title)
	assert.False(t, s.IsFormDirty())
}

func TestResolveSaveAsCopy(t *testing.T) {
	tr := &fakeTransport{createID: "fork-1"}
	n := &fakeNotifier{}
	s := conflictedSession(t, tr, n, nil)

	require.NoError(t, s.ResolveSaveAsCopy(context.Background()))

	assert.Nil(t, s.ActiveConflict())
	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Equal(t, 1, tr.createCalls)
	assert.Equal(t, "Local edit (copy)", tr.createdFields[0].Title)
	assert.Equal(t, []string{"fork-1"}, n.navigated)
	assert.Equal(t, 0, tr.updateCalls, "the original record is left alone")
}

func TestResolveSaveAsCopy_CreateFailureRestoresConflict(t *testing.T) {
	tr := &fakeTransport{createErr: errors.New("server down")}
	n := &fakeNotifier{}
	s := conflictedSession(t, tr, n, nil)

	require.Error(t, s.ResolveSaveAsCopy(context.Background()))

	assert.NotNil(t, s.ActiveConflict(), "nothing was resolved")
	assert.Len(t, n.saveErrors, 1)
	assert.Empty(t, n.navigated)
}

func TestDismissConflict_LeavesConflictPending(t *testing.T) {
	tr := &fakeTransport{}
	s := conflictedSession(t, tr, &fakeNotifier{}, nil)

	s.DismissConflict()

	assert.NotNil(t, s.ActiveConflict())
	assert.True(t, s.IsFormDirty())
}

func TestResolve_NoConflictIsNoOp(t *testing.T) {
	tr := &fakeTransport{}
	s := newExistingSession(tr, &fakeNotifier{}, nil)

	require.NoError(t, s.ResolveDiscardLocal(context.Background()))
	require.NoError(t, s.ResolveKeepMine(context.Background()))
	require.NoError(t, s.ResolveSaveAsCopy(context.Background()))

	assert.Equal(t, 0, tr.snapshot().updateCalls)
	assert.Equal(t, 0, tr.snapshot().createCalls)
}

func TestConflictSurvivesRepeatedSaveAttempts(t *testing.T) {
	tr := &fakeTransport{}
	s := conflictedSession(t, tr, &fakeNotifier{}, nil)

	// Re-triggering a save re-detects the same conflict and still does
	// not write.
	require.NoError(t, s.Save(context.Background()))

	c := s.ActiveConflict()
	require.NotNil(t, c)
	assert.Equal(t, int64(4), c.RemoteVersion)
	assert.Equal(t, 0, tr.snapshot().updateCalls)
}

func TestCopyTitle(t *testing.T) {
	assert.Equal(t, "Trip (copy)", copyTitle("Trip"))
	assert.Equal(t, "Copy", copyTitle(""))
}
