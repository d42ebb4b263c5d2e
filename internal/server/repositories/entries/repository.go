package entries

import (
	"context"

	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// Repository describes entry storage with optimistic concurrency control.
type Repository interface {
	// Create inserts a new entry at version 1 and returns its id.
	Create(ctx context.Context, e *models.Entry) (string, error)

	// Get returns the entry by id for the given user, tombstones included.
	// Returns common.ErrNotFound when no row exists.
	Get(ctx context.Context, userID, id string) (*models.Entry, error)

	// UpdateWithVersion applies e's fields only when the stored version
	// still equals baseVersion, and returns the new version. A newer
	// stored version yields common.ErrVersionConflict; a tombstoned row
	// yields common.ErrEntryDeleted; a missing row common.ErrNotFound.
	UpdateWithVersion(ctx context.Context, e *models.Entry, baseVersion int64) (int64, error)

	// SoftDelete tombstones the entry and bumps its version.
	SoftDelete(ctx context.Context, userID, id, device string) error
}
