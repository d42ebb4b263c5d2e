package attachments

import (
	"context"

	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// Repository describes metadata storage for entry photos.
type Repository interface {
	// Create inserts an attachment row.
	Create(ctx context.Context, a *models.Attachment) error

	// ListByEntry returns all attachments for an entry ordered by position.
	ListByEntry(ctx context.Context, userID, entryID string) ([]models.Attachment, error)
}
