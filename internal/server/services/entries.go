package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gabenodland/trace-sub002/internal/server/models"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/repomanager"
)

// Broadcaster receives every committed entry change so watching devices
// can be notified. Publish must not block.
type Broadcaster interface {
	Publish(userID string, e *models.Entry)
}

// EntryService implements versioned entry operations. Every mutation that
// commits is pushed to the broadcaster with the authoritative row.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hub         Broadcaster
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, hub Broadcaster) *EntryService {
	return &EntryService{db: db, repomanager: m, hub: hub}
}

// Create inserts a new entry at version 1 and returns the stored row.
func (s *EntryService) Create(ctx context.Context, userID string, e *models.Entry) (*models.Entry, error) {
	e.UserID = userID

	repo := s.repomanager.Entries(s.db)
	id, err := repo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("error creating entry: %w", err)
	}

	stored, err := repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("error reading back entry: %w", err)
	}

	s.broadcast(userID, stored)
	return stored, nil
}

// Update applies e on top of baseVersion and returns the stored row at
// its new version. Version conflicts and tombstones surface as the
// repository's sentinel errors, untouched, so the transport can map them.
func (s *EntryService) Update(ctx context.Context, userID string, e *models.Entry, baseVersion int64) (*models.Entry, error) {
	e.UserID = userID

	repo := s.repomanager.Entries(s.db)
	if _, err := repo.UpdateWithVersion(ctx, e, baseVersion); err != nil {
		return nil, err
	}

	stored, err := repo.Get(ctx, userID, e.ID)
	if err != nil {
		return nil, fmt.Errorf("error reading back entry: %w", err)
	}

	s.broadcast(userID, stored)
	return stored, nil
}

// Delete tombstones the entry. Watching devices see the tombstoned row.
func (s *EntryService) Delete(ctx context.Context, userID, id, device string) error {
	repo := s.repomanager.Entries(s.db)
	if err := repo.SoftDelete(ctx, userID, id, device); err != nil {
		return err
	}

	stored, err := repo.Get(ctx, userID, id)
	if err == nil {
		s.broadcast(userID, stored)
	}
	return nil
}

// Get returns the entry by id, tombstones included.
func (s *EntryService) Get(ctx context.Context, userID, id string) (*models.Entry, error) {
	return s.repomanager.Entries(s.db).Get(ctx, userID, id)
}

// AddAttachment records photo metadata for an entry the user owns.
func (s *EntryService) AddAttachment(ctx context.Context, userID string, a *models.Attachment) error {
	if _, err := s.repomanager.Entries(s.db).Get(ctx, userID, a.EntryID); err != nil {
		return err
	}
	a.UserID = userID
	return s.repomanager.Attachments(s.db).Create(ctx, a)
}

// ListAttachments returns the entry's attachments ordered by position.
func (s *EntryService) ListAttachments(ctx context.Context, userID, entryID string) ([]models.Attachment, error) {
	return s.repomanager.Attachments(s.db).ListByEntry(ctx, userID, entryID)
}

func (s *EntryService) broadcast(userID string, e *models.Entry) {
	if s.hub != nil {
		s.hub.Publish(userID, e)
	}
}
