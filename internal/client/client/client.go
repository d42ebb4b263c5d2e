// Package client defines the transport used to persist entries and the
// gRPC implementation of it. The editing engine only sees this interface;
// the wire protocol is not its concern.
package client

import (
	"context"

	"github.com/gabenodland/trace-sub002/internal/client/models"
)

// Client is the thin CRUD transport plus the remote-change stream.
type Client interface {
	Close() error

	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Ping(ctx context.Context) error

	// CreateRecord persists a brand-new entry and returns its store id and
	// initial version.
	CreateRecord(ctx context.Context, fields models.RecordFields) (id string, version int64, err error)

	// UpdateRecord overwrites an existing entry. baseVersion is the version
	// this client last incorporated; the store rejects the write with a
	// version-conflict error when someone else has written since.
	UpdateRecord(ctx context.Context, id string, baseVersion int64, fields models.RecordFields) (version int64, err error)

	DeleteRecord(ctx context.Context, id string) error

	// GetRecord returns nil (and no error) when the entry does not exist.
	GetRecord(ctx context.Context, id string) (*models.Record, error)

	// PersistAttachmentRecord stores the attachment row for an entry.
	PersistAttachmentRecord(ctx context.Context, att models.Attachment) error

	ListAttachments(ctx context.Context, entryID string) ([]models.Attachment, error)

	// Watch delivers a Record whenever the backing store's copy changes,
	// from any device, until ctx is cancelled. The returned channel closes
	// when the stream ends.
	Watch(ctx context.Context, device string) (<-chan *models.Record, error)
}
