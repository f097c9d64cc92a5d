package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"daybook/internal/logging"
)

// Status is the visible persistence state of the draft under edit.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSaving  Status = "saving"
	StatusSaved   Status = "saved"
	StatusError   Status = "error"
)

// Draft is one date-scoped free-text document.
type Draft struct {
	Date      string
	Content   string
	UpdatedAt time.Time
}

// Store persists drafts. Implemented by the API client.
type Store interface {
	FetchDraft(ctx context.Context, date string) (Draft, error)
	SaveDraft(ctx context.Context, date, content string) (time.Time, error)
}

// Timing controls the two save timers.
type Timing struct {
	// Debounce delays the save until edits have been quiet this long.
	Debounce time.Duration
	// MaxWait is the floor timer: anchored to the moment the draft became
	// dirty, it fires even under continuous typing.
	MaxWait time.Duration
}

// DefaultTiming matches the production cadence.
func DefaultTiming() Timing {
	return Timing{Debounce: 5 * time.Second, MaxWait: 30 * time.Second}
}

// StatusFunc observes status transitions. The message is the failure text
// when the status is StatusError, empty otherwise.
type StatusFunc func(status Status, message string)

type saveCall struct {
	done chan struct{}
	err  error
}

// Engine owns the autosave state for one draft editor.
type Engine struct {
	store    Store
	timing   Timing
	logger   *slog.Logger
	onStatus StatusFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	date        string
	live        string
	persisted   string
	dirty       bool
	dirtySince  time.Time
	status      Status
	lastError   string
	inflight    *saveCall
	debounce    *time.Timer
	floor       *time.Timer
	debounceGen uint64
	floorGen    uint64
	closed      bool
}

// NewEngine builds an engine. onStatus may be nil. Zero timing fields fall
// back to DefaultTiming.
func NewEngine(store Store, timing Timing, logger *slog.Logger, onStatus StatusFunc) *Engine {
	defaults := DefaultTiming()
	if timing.Debounce <= 0 {
		timing.Debounce = defaults.Debounce
	}
	if timing.MaxWait <= 0 {
		timing.MaxWait = defaults.MaxWait
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:    store,
		timing:   timing,
		logger:   logging.WithComponent(logger, "autosave"),
		onStatus: onStatus,
		ctx:      ctx,
		cancel:   cancel,
		status:   StatusIdle,
	}
}

// Load fetches the draft for a date and makes it the engine's context.
// It must not be called with unsaved edits pending; use SetDate for that.
func (e *Engine) Load(ctx context.Context, date string) (Draft, error) {
	draft, err := e.store.FetchDraft(ctx, date)
	if err != nil {
		return Draft{}, fmt.Errorf("fetch draft %s: %w", date, err)
	}
	e.mu.Lock()
	e.stopTimersLocked()
	e.date = date
	e.live = draft.Content
	e.persisted = draft.Content
	e.dirty = false
	e.lastError = ""
	notify := e.setStatusLocked(StatusIdle, "")
	e.mu.Unlock()
	notify()
	return draft, nil
}

// SetText records one edit. Equality with the last-persisted text cancels any
// pending save; otherwise the debounce timer re-arms and the floor timer
// stays anchored to the moment the draft became dirty.
func (e *Engine) SetText(text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.live = text

	if text == e.persisted && e.inflight == nil {
		e.dirty = false
		e.stopTimersLocked()
		notify := e.setStatusLocked(StatusIdle, "")
		e.mu.Unlock()
		notify()
		return
	}

	if !e.dirty {
		e.dirty = true
		e.dirtySince = time.Now()
		e.armFloorLocked()
	}
	e.armDebounceLocked()
	notify := e.setStatusLocked(StatusPending, "")
	e.mu.Unlock()
	notify()
}

// Save persists the current text immediately, bypassing the debounce but
// honoring the single-flight guard. A clean draft is a no-op.
func (e *Engine) Save(ctx context.Context) error {
	return e.save(ctx)
}

// SetDate switches the engine to a new date-scope. Dirty content under the
// old date is saved synchronously first; if that save (or the fetch of the
// new draft) fails the switch is aborted and the old state is retained.
func (e *Engine) SetDate(ctx context.Context, date string) (Draft, error) {
	e.mu.Lock()
	current := e.date
	e.mu.Unlock()
	if date == current {
		return Draft{Date: current, Content: e.Text()}, nil
	}

	// Flush until clean: a save may complete while the user kept typing,
	// leaving the draft dirty again.
	for {
		e.mu.Lock()
		dirty := e.dirty || e.inflight != nil
		e.mu.Unlock()
		if !dirty {
			break
		}
		if err := e.save(ctx); err != nil {
			return Draft{}, fmt.Errorf("save draft %s before switch: %w", current, err)
		}
	}

	return e.Load(ctx, date)
}

// Text returns the live text.
func (e *Engine) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Status returns the visible persistence status and, for StatusError, the
// retained failure text.
func (e *Engine) Status() (Status, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, e.lastError
}

// Date returns the active date-scope key.
func (e *Engine) Date() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.date
}

// Dirty reports whether the live text differs from the last persisted text.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Stop cancels the timers and the engine lifecycle context. An in-flight
// save is left to finish on its own.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.closed = true
	e.stopTimersLocked()
	e.mu.Unlock()
	e.cancel()
}

func (e *Engine) save(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	if call := e.inflight; call != nil {
		e.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if !e.dirty {
		e.mu.Unlock()
		return nil
	}

	call := &saveCall{done: make(chan struct{})}
	e.inflight = call
	date := e.date
	text := e.live
	e.stopTimersLocked()
	notify := e.setStatusLocked(StatusSaving, "")
	e.mu.Unlock()
	notify()

	_, err := e.store.SaveDraft(ctx, date, text)

	e.mu.Lock()
	e.inflight = nil
	call.err = err
	switch {
	case e.date != date:
		// The engine moved on while the save was in flight; nothing of the
		// old context remains to update.
		notify = func() {}
	case err != nil:
		e.lastError = err.Error()
		notify = e.setStatusLocked(StatusError, e.lastError)
		e.logger.Warn("draft save failed",
			logging.String(logging.FieldDate, date),
			logging.Error(err),
			logging.String(logging.FieldEventType, "autosave_failed"),
			logging.String(logging.FieldErrorHint, "retry with a manual save"),
		)
	default:
		e.persisted = text
		e.lastError = ""
		if e.live != text {
			// The user kept typing during the save; reschedule instead of
			// reporting a false "saved".
			e.dirty = true
			e.dirtySince = time.Now()
			e.armFloorLocked()
			e.armDebounceLocked()
			notify = e.setStatusLocked(StatusPending, "")
		} else {
			e.dirty = false
			notify = e.setStatusLocked(StatusSaved, "")
		}
	}
	close(call.done)
	e.mu.Unlock()
	notify()
	return err
}

func (e *Engine) armDebounceLocked() {
	e.debounceGen++
	gen := e.debounceGen
	if e.debounce != nil {
		e.debounce.Stop()
	}
	e.debounce = time.AfterFunc(e.timing.Debounce, func() { e.timerFired(gen, &e.debounceGen) })
}

func (e *Engine) armFloorLocked() {
	e.floorGen++
	gen := e.floorGen
	if e.floor != nil {
		e.floor.Stop()
	}
	e.floor = time.AfterFunc(e.timing.MaxWait, func() { e.timerFired(gen, &e.floorGen) })
}

func (e *Engine) stopTimersLocked() {
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
	if e.floor != nil {
		e.floor.Stop()
		e.floor = nil
	}
	e.debounceGen++
	e.floorGen++
}

// timerFired runs in the timer goroutine. A stale generation means the timer
// was superseded after the callback was already scheduled.
func (e *Engine) timerFired(gen uint64, current *uint64) {
	e.mu.Lock()
	live := !e.closed && gen == *current && e.dirty
	e.mu.Unlock()
	if !live {
		return
	}
	if err := e.save(e.ctx); err != nil && e.logger != nil {
		e.logger.Debug("scheduled save failed", logging.Error(err))
	}
}

func (e *Engine) setStatusLocked(status Status, message string) func() {
	if e.status == status && (status != StatusError || e.lastError == message) {
		return func() {}
	}
	e.status = status
	callback := e.onStatus
	if callback == nil {
		return func() {}
	}
	message = strings.TrimSpace(message)
	return func() { callback(status, message) }
}
