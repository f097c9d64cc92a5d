package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"daybook/internal/logging"
	"daybook/internal/publish"
)

// State is the lifecycle of one poll session.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateTerminal  State = "terminal"
	StateCancelled State = "cancelled"
)

// JobReader fetches the current server copy of a job.
type JobReader interface {
	GetJob(ctx context.Context, jobID int64) (*publish.Job, error)
}

// SessionConfig tunes one session. Zero values fall back to production
// defaults (2s interval, 5s cap).
type SessionConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
}

// Session polls one publish job until it is terminal or cancelled. One
// session serves one subscriber; re-created on resume.
type Session struct {
	reader   JobReader
	jobID    int64
	cfg      SessionConfig
	logger   *slog.Logger
	onUpdate func(*publish.Job)

	mu       sync.Mutex
	state    State
	local    *publish.Job
	failures int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSession builds an idle session for a job. onUpdate receives every merged
// snapshot in receipt order; it runs on the session goroutine.
func NewSession(reader JobReader, jobID int64, cfg SessionConfig, logger *slog.Logger, onUpdate func(*publish.Job)) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxInterval < cfg.Interval {
		cfg.MaxInterval = 5 * time.Second
	}
	return &Session{
		reader:   reader,
		jobID:    jobID,
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "job-poller"),
		onUpdate: onUpdate,
		state:    StateIdle,
		done:     make(chan struct{}),
	}
}

// Seed installs a locally-held copy of the job (placeholder items, in-transit
// failure annotations) to be merged with every fetched snapshot. Must be
// called before Start.
func (s *Session) Seed(job *publish.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = job.Clone()
}

// Start begins polling. It returns immediately; the session runs on its own
// goroutine until terminal state or cancellation.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StatePolling
	s.mu.Unlock()

	go s.run(runCtx)
}

// Cancel stops the session. A fetch already in flight is discarded when it
// returns; no further delays are scheduled.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state == StatePolling {
		s.state = StateCancelled
	}
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed once the session has fully stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Job returns the last merged snapshot, or nil before the first poll.
func (s *Session) Job() *publish.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Clone()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	for {
		job, err := s.reader.GetJob(ctx, s.jobID)

		s.mu.Lock()
		if s.state != StatePolling {
			// Cancelled while the fetch was in flight: the response is
			// stale and must not produce side effects.
			s.mu.Unlock()
			return
		}
		var (
			snapshot *publish.Job
			terminal bool
		)
		if err != nil {
			s.failures++
		} else {
			s.failures = 0
			s.local = publish.Merge(s.local, job)
			snapshot = s.local.Clone()
			terminal = s.local.Terminal()
			if terminal {
				s.state = StateTerminal
			}
		}
		failures := s.failures
		s.mu.Unlock()

		if err != nil {
			s.logger.Warn("job status fetch failed",
				logging.Int64(logging.FieldJobID, s.jobID),
				logging.Int("failure_streak", failures),
				logging.Error(err),
			)
		}
		if snapshot != nil && s.onUpdate != nil {
			s.onUpdate(snapshot)
		}
		if terminal {
			s.logger.Info("job reached terminal state", logging.Int64(logging.FieldJobID, s.jobID))
			return
		}

		delay := backoff(s.cfg.Interval, s.cfg.MaxInterval, failures)
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.state == StatePolling {
				s.state = StateCancelled
			}
			s.mu.Unlock()
			return
		case <-time.After(delay):
		}

		s.mu.Lock()
		cancelled := s.state != StatePolling
		s.mu.Unlock()
		if cancelled {
			return
		}
	}
}
