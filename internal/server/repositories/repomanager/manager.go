package repomanager

import (
	"context"
	"database/sql"

	"github.com/gabenodland/trace-sub002/internal/dbx"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/attachments"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/entries"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/refreshtokens"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes the schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entries(db dbx.DBTX) entries.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
