package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"daybook/internal/dispatch"
	"daybook/internal/logging"
)

// ErrValidation marks input rejected before any network call.
var ErrValidation = errors.New("validation error")

// API is the remote job surface the orchestrator depends on. Implemented by
// the api client.
type API interface {
	CreateJob(ctx context.Context, date, content string, targetIDs []int64) (*Job, error)
	StartJob(ctx context.Context, jobID int64, concurrency int) (bool, error)
	GetJob(ctx context.Context, jobID int64) (*Job, error)
	PublishOne(ctx context.Context, jobID, accountID int64) (Item, error)
}

// Preferences persists the last-used target selection for pre-selection on
// the next publish.
type Preferences interface {
	SaveLastSelection(ctx context.Context, targetIDs []int64) error
	LastSelection(ctx context.Context) ([]int64, error)
}

// Orchestrator creates, starts, and reads publish jobs.
type Orchestrator struct {
	api    API
	prefs  Preferences
	logger *slog.Logger
}

// NewOrchestrator builds an orchestrator. prefs may be nil when no local
// state is available; the selection side effect is then skipped.
func NewOrchestrator(remote API, prefs Preferences, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		api:    remote,
		prefs:  prefs,
		logger: logging.WithComponent(logger, "orchestrator"),
	}
}

// ValidateDate checks the YYYY-MM-DD date-scope key format.
func ValidateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD: %q", ErrValidation, date)
	}
	return nil
}

// CreateJob creates a publish run. Content and target list are validated
// before any network call. The returned job always carries one item per
// target: placeholders are synthesized when the server omits them. On
// success the target selection is durably recorded as the default for the
// next publish.
func (o *Orchestrator) CreateJob(ctx context.Context, date, content string, targetIDs []int64) (*Job, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", ErrValidation)
	}
	if len(targetIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one target account is required", ErrValidation)
	}

	job, err := o.api.CreateJob(ctx, date, content, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if len(job.TargetAccountIDs) == 0 {
		job.TargetAccountIDs = append([]int64(nil), targetIDs...)
	}
	SynthesizeItems(job)

	if o.prefs != nil {
		if err := o.prefs.SaveLastSelection(ctx, targetIDs); err != nil {
			// The job exists; a failed preference write only costs the next
			// pre-selection.
			o.logger.Warn("failed to record target selection",
				logging.Error(err),
				logging.String(logging.FieldEventType, "selection_save_failed"),
				logging.String(logging.FieldErrorHint, "check state directory permissions"),
			)
		}
	}

	o.logger.Info("publish job created",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldDate, date),
		logging.Int("targets", len(targetIDs)),
	)
	return job, nil
}

// StartJob begins server-side execution. Idempotent: an already-executing
// job reports alreadyRunning instead of erroring.
func (o *Orchestrator) StartJob(ctx context.Context, jobID int64, concurrency int) (alreadyRunning bool, err error) {
	alreadyRunning, err = o.api.StartJob(ctx, jobID, concurrency)
	if err != nil {
		return false, fmt.Errorf("start job %d: %w", jobID, err)
	}
	if alreadyRunning {
		o.logger.Info("job already running", logging.Int64(logging.FieldJobID, jobID))
	}
	return alreadyRunning, nil
}

// GetJob fetches a run. Pure read: used by the poller and by on-demand
// result views.
func (o *Orchestrator) GetJob(ctx context.Context, jobID int64) (*Job, error) {
	job, err := o.api.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", jobID, err)
	}
	SynthesizeItems(job)
	return job, nil
}

// DefaultSelection returns the persisted last-used target selection, or nil
// when none was recorded.
func (o *Orchestrator) DefaultSelection(ctx context.Context) []int64 {
	if o.prefs == nil {
		return nil
	}
	selection, err := o.prefs.LastSelection(ctx)
	if err != nil {
		o.logger.Debug("no stored target selection", logging.Error(err))
		return nil
	}
	return selection
}

// PublishDirect runs the legacy client-driven mode: one request per target
// with at most limit in flight. Failures are isolated per target and
// recorded as failed items with their reason; siblings are never cancelled.
// The job's items are updated in target order.
func (o *Orchestrator) PublishDirect(ctx context.Context, job *Job, limit int) *Job {
	results := dispatch.Run(ctx, job.TargetAccountIDs, limit, func(ctx context.Context, accountID int64) (Item, error) {
		return o.api.PublishOne(ctx, job.ID, accountID)
	})

	updated := job.Clone()
	SynthesizeItems(updated)
	for i, result := range results {
		accountID := job.TargetAccountIDs[i]
		item := updated.ItemFor(accountID)
		if item == nil {
			continue
		}
		if result.Fulfilled() {
			*item = result.Value
			item.AccountID = accountID
			continue
		}
		item.Status = StatusFailed
		item.ErrorMessage = result.Err.Error()
	}
	return updated
}
