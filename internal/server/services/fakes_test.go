package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/gabenodland/trace-sub002/internal/common"
	"github.com/gabenodland/trace-sub002/internal/dbx"
	"github.com/gabenodland/trace-sub002/internal/server/models"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/attachments"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/entries"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/refreshtokens"
	"github.com/gabenodland/trace-sub002/internal/server/repositories/users"
)

// fakeRepoManager vends the in-memory fakes below regardless of the
// handle it is given, so services can be tested without a database.
type fakeRepoManager struct {
	users  *fakeUsers
	tokens *fakeTokens
	ent    *fakeEntries
	att    *fakeAttachments
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return m.users }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository  { return m.tokens }
func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository              { return m.ent }
func (m *fakeRepoManager) Attachments(db dbx.DBTX) attachments.Repository      { return m.att }

type fakeUsers struct {
	created   []*models.User
	createErr error
	byLogin   *models.User
	getErr    error
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "user-1"
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsers) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byLogin, nil
}

type fakeTokens struct {
	stored    map[string]*models.RefreshToken
	createErr error
	deleted   []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{stored: map[string]*models.RefreshToken{}}
}

func (f *fakeTokens) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.stored[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.stored[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokens) Delete(ctx context.Context, token string) error {
	delete(f.stored, token)
	f.deleted = append(f.deleted, token)
	return nil
}

type fakeEntries struct {
	rows      map[string]*models.Entry
	nextID    string
	createErr error
	updateErr error
	updated   []int64
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{rows: map[string]*models.Entry{}, nextID: "e1"}
}

func (f *fakeEntries) Create(ctx context.Context, e *models.Entry) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	stored := *e
	stored.ID = f.nextID
	stored.Version = 1
	f.rows[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeEntries) Get(ctx context.Context, userID, id string) (*models.Entry, error) {
	e, ok := f.rows[id]
	if !ok || e.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEntries) UpdateWithVersion(ctx context.Context, e *models.Entry, baseVersion int64) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	stored := *e
	stored.Version = baseVersion + 1
	f.rows[stored.ID] = &stored
	f.updated = append(f.updated, baseVersion)
	return stored.Version, nil
}

func (f *fakeEntries) SoftDelete(ctx context.Context, userID, id, device string) error {
	e, ok := f.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	e.Deleted = true
	e.LastEditedDevice = device
	e.Version++
	return nil
}

type fakeAttachments struct {
	created []*models.Attachment
	list    []models.Attachment
}

func (f *fakeAttachments) Create(ctx context.Context, a *models.Attachment) error {
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAttachments) ListByEntry(ctx context.Context, userID, entryID string) ([]models.Attachment, error) {
	return f.list, nil
}

type fakeHub struct {
	published []*models.Entry
}

func (h *fakeHub) Publish(userID string, e *models.Entry) {
	h.published = append(h.published, e)
}
