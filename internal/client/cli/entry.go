package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gabenodland/trace-sub002/internal/client/models"
	"github.com/gabenodland/trace-sub002/internal/client/session"
	"github.com/gabenodland/trace-sub002/internal/common"
)

// NewEntry opens the entry loop over a brand-new draft. Nothing is
// created on the server until the first save with actual content.
func (a *App) NewEntry(ctx context.Context) error {
	return a.editEntry(ctx, nil, 0)
}

// OpenEntry fetches an entry and opens the entry loop over it.
func (a *App) OpenEntry(ctx context.Context, id string) error {
	rec, err := a.api.GetRecord(ctx, id)
	if err != nil {
		fmt.Println("open failed:", err)
		return err
	}
	if rec == nil || rec.Deleted {
		fmt.Println("entry not found:", id)
		return common.ErrNotFound
	}

	atts, err := a.api.ListAttachments(ctx, id)
	if err != nil {
		fmt.Println("warning: could not list photos:", err)
	}

	return a.editEntry(ctx, rec, len(atts))
}

// DeleteEntry removes an entry on the server.
func (a *App) DeleteEntry(ctx context.Context, id string) error {
	if err := a.api.DeleteRecord(ctx, id); err != nil {
		fmt.Println("delete failed:", err)
		return err
	}
	fmt.Println("deleted", id)
	return nil
}

func (a *App) editEntry(ctx context.Context, rec *models.Record, attachmentCount int) error {
	buf := &bodyBuffer{}
	if rec != nil {
		buf.SetContent(rec.Body)
	}
	notifier := &terminalNotifier{reader: a.reader, w: os.Stdout}

	s := session.New(session.Params{
		Logger:          a.log,
		Transport:       a.api,
		Attachments:     a.attachments,
		Drafts:          a.drafts,
		Notifier:        notifier,
		Editor:          buf,
		Device:          a.device,
		Record:          rec,
		AttachmentCount: attachmentCount,
		Debounce:        a.config.AutosaveDebounce,
		MaxWait:         a.config.AutosaveMaxWait,
	})
	a.current = s
	defer func() { a.current = nil }()

	if err := s.StartWatch(ctx); err != nil {
		fmt.Println("warning: live updates unavailable:", err)
	}

	a.entryLoop(ctx, s, buf)
	return nil
}

// entryLoop is the per-entry command loop. It returns when the user types
// "back", after the session's leave-screen save has run.
func (a *App) entryLoop(ctx context.Context, s *session.Session, buf *bodyBuffer) {
	fmt.Println("Editing. Commands: show, title, body, status, rate, due, photo <path>, save, back")
	scanner := bufio.NewScanner(a.reader)

	for {
		fmt.Print("entry> ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "show":
			a.showEntry(s)

		case "title":
			if err := s.UpdateField("title", strings.Join(args, " ")); err != nil {
				fmt.Println("error:", err)
			}

		case "body":
			text, err := GetMultiline(a.reader, "Body", os.Stdout)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			buf.SetContent(text)
			s.OnEditorChange(text)

		case "status":
			if len(args) == 0 {
				fmt.Println("Usage: status none|todo|done")
				continue
			}
			st, err := parseStatus(args[0])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if err := s.UpdateField("status", st); err != nil {
				fmt.Println("error:", err)
			}

		case "rate":
			if len(args) == 0 {
				fmt.Println("Usage: rate <0-5>")
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 || n > 5 {
				fmt.Println("rating must be 0 to 5")
				continue
			}
			if err := s.UpdateField("rating", n); err != nil {
				fmt.Println("error:", err)
			}

		case "due":
			if len(args) == 0 {
				if err := s.UpdateField("due_date", (*time.Time)(nil)); err != nil {
					fmt.Println("error:", err)
				}
				continue
			}
			d, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				fmt.Println("Usage: due [YYYY-MM-DD]")
				continue
			}
			if err := s.UpdateField("due_date", &d); err != nil {
				fmt.Println("error:", err)
			}

		case "photo":
			if len(args) == 0 {
				fmt.Println("Usage: photo <path>")
				continue
			}
			a.addPhoto(ctx, s, args[0])

		case "save":
			if err := s.Save(ctx); err != nil {
				fmt.Println("error:", err)
			}
			if s.ActiveConflict() != nil {
				a.promptConflict(ctx, s, scanner)
			}

		case "back":
			if err := s.HandleBack(ctx); err != nil {
				fmt.Println("warning: final save failed:", err)
			}
			if s.ActiveConflict() != nil {
				a.promptConflict(ctx, s, scanner)
			}
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) showEntry(s *session.Session) {
	snap := s.FormData()
	fmt.Println("id:     ", s.EffectiveID())
	fmt.Println("title:  ", snap.Title)
	fmt.Println("body:   ", snap.Body)
	if snap.Status != models.StatusNone {
		fmt.Println("status: ", snap.Status)
	}
	if snap.Rating > 0 {
		fmt.Println("rating: ", snap.Rating)
	}
	if snap.DueDate != nil {
		fmt.Println("due:    ", snap.DueDate.Format("2006-01-02"))
	}
	if n := len(snap.PendingPhotos); n > 0 {
		fmt.Printf("photos:  %d pending\n", n)
	}
	if s.IsFormDirty() {
		fmt.Println("(unsaved changes)")
	}
}

// addPhoto uploads the file under the draft's temp prefix and queues it on
// the session; relocation to the permanent prefix happens on first save.
func (a *App) addPhoto(ctx context.Context, s *session.Session, path string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	p := models.PendingAttachment{
		ID:        uuid.NewString(),
		LocalPath: path,
		MimeType:  mimeTypeForPath(path),
		ByteSize:  info.Size(),
	}

	p, err = a.attachments.UploadPending(ctx, s.TempID(), p)
	if err != nil {
		fmt.Println("upload failed:", err)
		return
	}

	s.AddPendingPhoto(p)
	fmt.Println("photo queued:", filepath.Base(path))
}

func (a *App) promptConflict(ctx context.Context, s *session.Session, scanner *bufio.Scanner) {
	c := s.ActiveConflict()
	if c == nil {
		return
	}

	fmt.Printf("Conflict: this entry was changed on %s (version %d, yours is based on %d).\n",
		c.Device, c.RemoteVersion, c.BaseVersion)
	fmt.Println("  keep    - overwrite with your changes")
	fmt.Println("  discard - take the other device's version")
	fmt.Println("  copy    - save your changes as a new entry")
	fmt.Println("  cancel  - decide later")
	fmt.Print("conflict> ")

	if !scanner.Scan() {
		return
	}
	var err error
	switch strings.TrimSpace(scanner.Text()) {
	case "keep":
		err = s.ResolveKeepMine(ctx)
	case "discard":
		err = s.ResolveDiscardLocal(ctx)
	case "copy":
		err = s.ResolveSaveAsCopy(ctx)
	default:
		s.DismissConflict()
		fmt.Println("Conflict left unresolved; your changes stay local.")
	}
	if err != nil {
		fmt.Println("error:", err)
	}
}

func parseStatus(s string) (models.EntryStatus, error) {
	switch s {
	case "none":
		return models.StatusNone, nil
	case "todo":
		return models.StatusTodo, nil
	case "done":
		return models.StatusDone, nil
	}
	return models.StatusNone, errors.New("status must be none, todo, or done")
}

func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
