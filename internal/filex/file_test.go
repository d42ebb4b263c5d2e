package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesMissingDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "drafts.db")

	require.NoError(t, EnsureParentDir(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureParentDir_ExistingDirIsFine(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, EnsureParentDir(filepath.Join(dir, "drafts.db")))
}

func TestEnsureParentDir_BareFileName(t *testing.T) {
	assert.NoError(t, EnsureParentDir("drafts.db"))
}
