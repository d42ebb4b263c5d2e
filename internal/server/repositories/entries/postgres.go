// Package entries provides the PostgreSQL-backed repository for journal
// entries, including the versioned update that backs conflict detection.
package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gabenodland/trace-sub002/internal/common"
	"github.com/gabenodland/trace-sub002/internal/dbx"
	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) (string, error) {
	query := `
		INSERT INTO entries (user_id, title, body, stream_id, stream_name, status, entry_type,
			due_date, rating, priority, entry_time, show_time, location, tags, mentions,
			version, last_edited_device, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16, now())
		RETURNING id
	`
	tags, mentions, err := marshalLists(e)
	if err != nil {
		return "", err
	}

	var id string
	err = r.db.QueryRowContext(ctx, query,
		e.UserID, e.Title, e.Body, e.StreamID, e.StreamName, e.Status, e.EntryType,
		e.DueDate, e.Rating, e.Priority, e.EntryTime, e.ShowTime, nullableJSON(e.LocationJSON),
		tags, mentions, e.LastEditedDevice,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Entry, error) {
	query := `
		SELECT id, user_id, title, body, stream_id, stream_name, status, entry_type,
			due_date, rating, priority, entry_time, show_time,
			COALESCE(location::text, ''), tags::text, mentions::text,
			version, last_edited_device, updated_at, deleted
		FROM entries
		WHERE user_id = $1 AND id = $2
	`
	e := &models.Entry{}
	var tags, mentions string
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(
		&e.ID, &e.UserID, &e.Title, &e.Body, &e.StreamID, &e.StreamName, &e.Status, &e.EntryType,
		&e.DueDate, &e.Rating, &e.Priority, &e.EntryTime, &e.ShowTime,
		&e.LocationJSON, &tags, &mentions,
		&e.Version, &e.LastEditedDevice, &e.UpdatedAt, &e.Deleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(mentions), &e.Mentions); err != nil {
		return nil, fmt.Errorf("decode mentions: %w", err)
	}
	return e, nil
}

// UpdateWithVersion is the compare-and-swap behind optimistic saves: the
// UPDATE matches only when version is still baseVersion, so a concurrent
// writer makes this affect zero rows and the follow-up probe classifies
// the reason.
func (r *PostgresRepository) UpdateWithVersion(ctx context.Context, e *models.Entry, baseVersion int64) (int64, error) {
	query := `
		UPDATE entries SET
			title = $1, body = $2, stream_id = $3, stream_name = $4, status = $5, entry_type = $6,
			due_date = $7, rating = $8, priority = $9, entry_time = $10, show_time = $11,
			location = $12, tags = $13, mentions = $14,
			version = version + 1, last_edited_device = $15, updated_at = now()
		WHERE user_id = $16 AND id = $17 AND version = $18 AND NOT deleted
		RETURNING version
	`
	tags, mentions, err := marshalLists(e)
	if err != nil {
		return 0, err
	}

	var version int64
	err = r.db.QueryRowContext(ctx, query,
		e.Title, e.Body, e.StreamID, e.StreamName, e.Status, e.EntryType,
		e.DueDate, e.Rating, e.Priority, e.EntryTime, e.ShowTime,
		nullableJSON(e.LocationJSON), tags, mentions, e.LastEditedDevice,
		e.UserID, e.ID, baseVersion,
	).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("db error: %w", err)
	}

	// Zero rows: find out why.
	current, getErr := r.Get(ctx, e.UserID, e.ID)
	if getErr != nil {
		return 0, getErr
	}
	if current.Deleted {
		return 0, common.ErrEntryDeleted
	}
	return 0, common.ErrVersionConflict
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, userID, id, device string) error {
	query := `
		UPDATE entries SET deleted = TRUE, version = version + 1,
			last_edited_device = $1, updated_at = now()
		WHERE user_id = $2 AND id = $3 AND NOT deleted
	`
	res, err := r.db.ExecContext(ctx, query, device, userID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func marshalLists(e *models.Entry) (string, string, error) {
	tags, err := json.Marshal(orEmpty(e.Tags))
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	mentions, err := json.Marshal(orEmpty(e.Mentions))
	if err != nil {
		return "", "", fmt.Errorf("encode mentions: %w", err)
	}
	return string(tags), string(mentions), nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableJSON maps an empty location to SQL NULL.
func nullableJSON(s string) any {
	if s == "" {
		return nil
	}
	return s
}
