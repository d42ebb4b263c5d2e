package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/gabenodland/trace-sub002/internal/client/attachments"
	"github.com/gabenodland/trace-sub002/internal/client/client"
	"github.com/gabenodland/trace-sub002/internal/client/config"
	"github.com/gabenodland/trace-sub002/internal/client/editor"
	"github.com/gabenodland/trace-sub002/internal/client/repositories/drafts"
	"github.com/gabenodland/trace-sub002/internal/client/session"
	"github.com/gabenodland/trace-sub002/internal/filex"
	"github.com/gabenodland/trace-sub002/internal/logging"
)

// drafts older than this are dropped at startup; an abandoned draft this
// old is noise, not work in progress
const draftRetentionDays = 30

// App wires the transport, the draft cache, and the photo store behind
// the REPL. One session is open at a time; opening an entry while
// another is open closes the first through its normal leave path.
type App struct {
	config      *config.Config
	log         logging.Logger
	api         client.Client
	drafts      *drafts.SQLiteRepository
	attachments *attachments.S3Store
	device      editor.DeviceIdentityProvider

	loggedIn bool
	current  *session.Session
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	api, err := client.NewJournalClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := filex.EnsureParentDir(c.DraftDBPath); err != nil {
		return nil, fmt.Errorf("draft cache: %w", err)
	}
	draftRepo, err := drafts.Open(c.DraftDBPath)
	if err != nil {
		return nil, fmt.Errorf("draft cache: %w", err)
	}
	if n, err := draftRepo.PurgeOlderThan(ctx, draftRetentionDays); err != nil {
		log.Warn(ctx, "draft purge failed", "error", err.Error())
	} else if n > 0 {
		log.Info(ctx, "purged stale drafts", "count", n)
	}

	store, err := attachments.NewS3Store(ctx, c.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("photo store: %w", err)
	}

	var device editor.DeviceIdentityProvider = editor.HostnameIdentity{}
	if c.DeviceName != "" {
		device = editor.StaticIdentity(c.DeviceName)
	}

	return &App{
		config:      c,
		log:         log.With("module", "cli"),
		api:         api,
		drafts:      draftRepo,
		attachments: store,
		device:      device,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	fmt.Println("Journal CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) status() string {
	if !a.loggedIn {
		return "logged out"
	}
	if a.current != nil {
		return "editing " + a.current.EffectiveID()
	}
	return "logged in"
}

func (a *App) Close() {
	if a.current != nil {
		a.current.Close()
		a.current = nil
	}
	if a.drafts != nil {
		_ = a.drafts.Close()
	}
	if a.api != nil {
		_ = a.api.Close()
	}
}
