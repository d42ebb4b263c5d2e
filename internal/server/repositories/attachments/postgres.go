// Package attachments provides the PostgreSQL-backed repository for photo
// metadata. The photo bytes live in object storage; only the pointer rows
// are kept here.
package attachments

import (
	"context"
	"fmt"

	"github.com/gabenodland/trace-sub002/internal/dbx"
	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attachment) error {
	query := `
		INSERT INTO attachments (id, entry_id, user_id, storage_key, mime_type, byte_size, width, height, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.EntryID, a.UserID, a.StorageKey, a.MimeType, a.ByteSize, a.Width, a.Height, a.Position)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByEntry(ctx context.Context, userID, entryID string) ([]models.Attachment, error) {
	query := `
		SELECT id, entry_id, storage_key, mime_type, byte_size, width, height, position, created_at
		FROM attachments
		WHERE user_id = $1 AND entry_id = $2
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, userID, entryID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Attachment
	for rows.Next() {
		a := models.Attachment{UserID: userID}
		if err := rows.Scan(&a.ID, &a.EntryID, &a.StorageKey, &a.MimeType,
			&a.ByteSize, &a.Width, &a.Height, &a.Position, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
