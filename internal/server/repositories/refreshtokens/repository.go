package refreshtokens

import (
	"context"
	"time"

	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// Repository describes storage for single-use refresh tokens.
type Repository interface {
	// Create inserts a token for userID expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the token row, or common.ErrNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes the token.
	Delete(ctx context.Context, token string) error
}
