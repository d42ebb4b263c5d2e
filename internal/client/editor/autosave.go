package editor

import (
	"context"
	"sync"
	"time"

	"github.com/gabenodland/trace-sub002/internal/logging"
)

const (
	// DefaultDebounce is how long after the last qualifying edit a save
	// fires.
	DefaultDebounce = 2 * time.Second

	// DefaultMaxWait bounds the data-loss window during continuous typing:
	// a save is forced this long after dirtiness first appeared even if the
	// debounce timer keeps being pushed back.
	DefaultMaxWait = 30 * time.Second
)

// AutosaveScheduler turns a stream of edit events into a bounded-latency
// save trigger using two timers. The debounce timer restarts on every edit;
// the max-wait timer starts once when dirtiness first appears and is never
// reset by further edits. Whichever fires first triggers the save and
// cancels the other.
type AutosaveScheduler struct {
	mu       sync.Mutex
	debounce time.Duration
	maxWait  time.Duration

	debounceTimer *time.Timer
	maxWaitTimer  *time.Timer

	// eligible is the gate re-checked at every decision point: form dirty,
	// no save in flight, and (for new entries) some user content.
	eligible func() bool

	// fire performs the autosave. It runs on a timer goroutine.
	fire func()

	logger logging.Logger
}

func NewAutosaveScheduler(debounce, maxWait time.Duration, eligible func() bool, fire func(), logger logging.Logger) *AutosaveScheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &AutosaveScheduler{
		debounce: debounce,
		maxWait:  maxWait,
		eligible: eligible,
		fire:     fire,
		logger:   logger.With("module", "autosave"),
	}
}

// NoteEdit is called after every snapshot mutation. It restarts the
// debounce timer and arms the max-wait timer if this is the first edit of
// a dirty stretch. If the gate is closed both timers are cancelled.
func (a *AutosaveScheduler) NoteEdit() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.eligible() {
		a.cancelLocked()
		return
	}

	if a.debounceTimer != nil {
		a.debounceTimer.Stop()
	}
	a.debounceTimer = time.AfterFunc(a.debounce, func() { a.timerFired("debounce") })

	if a.maxWaitTimer == nil {
		a.maxWaitTimer = time.AfterFunc(a.maxWait, func() { a.timerFired("max_wait") })
	}
}

// Cancel stops both timers. Called when the gate goes false: a save
// started, the entry became clean, or the session is shutting down.
func (a *AutosaveScheduler) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()
}

func (a *AutosaveScheduler) cancelLocked() {
	if a.debounceTimer != nil {
		a.debounceTimer.Stop()
		a.debounceTimer = nil
	}
	if a.maxWaitTimer != nil {
		a.maxWaitTimer.Stop()
		a.maxWaitTimer = nil
	}
}

func (a *AutosaveScheduler) timerFired(which string) {
	a.mu.Lock()
	// The winning timer cancels the other; a stale fire that lost the race
	// to Cancel finds both timers nil and the gate decides below.
	a.cancelLocked()
	ok := a.eligible()
	a.mu.Unlock()

	if !ok {
		return
	}
	a.logger.Debug(context.Background(), "autosave trigger", "timer", which)
	a.fire()
}
