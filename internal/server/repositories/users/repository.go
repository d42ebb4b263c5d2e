package users

import (
	"context"

	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// Repository describes account storage.
type Repository interface {
	// Create inserts a new user and fills in the generated id.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin returns the user by username, or common.ErrNotFound.
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
}
