package drafts

import (
	"context"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// Repository is the local crash-recovery cache for unsaved entry
// snapshots. Keys are entry ids for persisted entries and draft temp ids
// for entries not yet created on the server.
type Repository interface {
	// Save upserts the snapshot under key.
	Save(ctx context.Context, key string, snap models.EntrySnapshot) error

	// Load returns the snapshot stored under key, or nil when none exists.
	Load(ctx context.Context, key string) (*models.EntrySnapshot, error)

	// Delete removes the draft under key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// PurgeOlderThan removes drafts not touched for the given number of
	// days and returns how many were removed.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}
