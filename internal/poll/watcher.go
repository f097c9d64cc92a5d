package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"daybook/internal/logging"
	"daybook/internal/notify"
)

// StatusFeed fetches the latest sync status per account.
type StatusFeed interface {
	LatestStatuses(ctx context.Context, limit int) ([]notify.StatusRecord, error)
}

// WatcherConfig tunes the sync-status poller. Zero values fall back to the
// production cadence (3s active, 20s idle, 60s cap).
type WatcherConfig struct {
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	MaxInterval    time.Duration
	Limit          int
}

// Watcher polls the sync-status feed, diffs each snapshot against its ledger,
// and emits each transition exactly once. While the injected visibility
// source reports hidden, the watcher suspends with no scheduled wake-up and
// resumes immediately when visibility returns.
type Watcher struct {
	feed       StatusFeed
	visibility VisibilitySource
	cfg        WatcherConfig
	logger     *slog.Logger
	onNotice   func(notify.Notice)
	// onVisible runs when the view becomes visible again, before the
	// immediate poll; the host hangs its out-of-band account refresh here.
	onVisible func()

	mu        sync.Mutex
	ledger    notify.Ledger
	active    bool
	failures  int
	cancelled bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWatcher builds a watcher. A nil visibility source means always visible.
func NewWatcher(feed StatusFeed, visibility VisibilitySource, cfg WatcherConfig, logger *slog.Logger, onNotice func(notify.Notice), onVisible func()) *Watcher {
	if cfg.ActiveInterval <= 0 {
		cfg.ActiveInterval = 3 * time.Second
	}
	if cfg.IdleInterval < cfg.ActiveInterval {
		cfg.IdleInterval = 20 * time.Second
	}
	if cfg.MaxInterval < cfg.IdleInterval {
		cfg.MaxInterval = 60 * time.Second
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if visibility == nil {
		visibility = AlwaysVisible{}
	}
	return &Watcher{
		feed:       feed,
		visibility: visibility,
		cfg:        cfg,
		logger:     logging.WithComponent(logger, "sync-poller"),
		onNotice:   onNotice,
		onVisible:  onVisible,
		ledger:     notify.Ledger{},
		done:       make(chan struct{}),
	}
}

// Start begins watching on its own goroutine.
func (w *Watcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	go w.run(runCtx)
}

// Cancel stops the watcher; an in-flight fetch is discarded on return.
func (w *Watcher) Cancel() {
	w.mu.Lock()
	w.cancelled = true
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed once the watcher has fully stopped.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Ledger returns a copy of the current notification ledger.
func (w *Watcher) Ledger() notify.Ledger {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Clone()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		if !w.visibility.Visible() {
			if !w.waitVisible(ctx) {
				return
			}
		}

		records, err := w.feed.LatestStatuses(ctx, w.cfg.Limit)

		w.mu.Lock()
		if w.cancelled {
			w.mu.Unlock()
			return
		}
		var notices []notify.Notice
		if err != nil {
			w.failures++
		} else {
			w.failures = 0
			notices, w.ledger = notify.Diff(records, w.ledger)
			w.active = notify.AnyRunning(records)
		}
		failures := w.failures
		active := w.active
		w.mu.Unlock()

		if err != nil {
			w.logger.Warn("status fetch failed",
				logging.Int("failure_streak", failures),
				logging.Error(err),
			)
		}
		for _, notice := range notices {
			if w.onNotice != nil {
				w.onNotice(notice)
			}
		}

		base := w.cfg.IdleInterval
		if active {
			base = w.cfg.ActiveInterval
		}
		delay := backoff(base, w.cfg.MaxInterval, failures)

		select {
		case <-ctx.Done():
			return
		case visible := <-w.visibility.Changes():
			// waitVisible fires becameVisible itself on the regain; only a
			// direct flip to visible is announced here, so one hidden→visible
			// transition refreshes exactly once.
			if visible {
				w.becameVisible()
			} else if !w.waitVisible(ctx) {
				return
			}
		case <-time.After(delay):
		}

		w.mu.Lock()
		cancelled := w.cancelled
		w.mu.Unlock()
		if cancelled {
			return
		}
	}
}

// waitVisible blocks with no scheduled wake-up until the view is visible
// again or the context ends. Returns false on shutdown.
func (w *Watcher) waitVisible(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case visible := <-w.visibility.Changes():
			if visible {
				w.becameVisible()
				return true
			}
		}
	}
}

func (w *Watcher) becameVisible() {
	if w.onVisible != nil {
		w.onVisible()
	}
}
