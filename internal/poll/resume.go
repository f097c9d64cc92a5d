package poll

import (
	"context"
	"fmt"
	"time"

	"daybook/internal/publish"
)

// Decision is the outcome of the resumption scan.
type Decision string

const (
	// DecisionNone means no incomplete recent job exists; nothing to resume.
	DecisionNone Decision = "none"
	// DecisionResume means the job looks live: poll it and tell the user
	// polling resumed.
	DecisionResume Decision = "resume"
	// DecisionInterrupted means the job is incomplete but shows no sign of
	// life: surface a notice without polling, so an abandoned job (e.g.
	// after a server restart) is not polled forever.
	DecisionInterrupted Decision = "interrupted"
)

// JobLister lists recent jobs, newest first.
type JobLister interface {
	ListJobs(ctx context.Context, date string, limit int) ([]publish.Summary, error)
}

// ResumeConfig bounds the resumption heuristic. Zero values fall back to a
// 6h recency window and 90s liveness grace.
type ResumeConfig struct {
	// Window is how recently a job must have been created to be considered.
	Window time.Duration
	// Grace is the age under which a job is assumed live without item
	// evidence.
	Grace time.Duration
}

// FindResumable scans recent jobs for one worth re-attaching to after a
// reload. It returns the fetched job and the decision; the job is nil for
// DecisionNone.
//
// The liveness test (young job, or any item running) is a heuristic guess:
// the server exposes no authoritative activity flag, so a job that is merely
// old and stalled is reported interrupted rather than polled indefinitely.
func FindResumable(ctx context.Context, lister JobLister, reader JobReader, date string, cfg ResumeConfig, now time.Time) (*publish.Job, Decision, error) {
	if cfg.Window <= 0 {
		cfg.Window = 6 * time.Hour
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 90 * time.Second
	}

	summaries, err := lister.ListJobs(ctx, date, 20)
	if err != nil {
		return nil, DecisionNone, fmt.Errorf("list recent jobs: %w", err)
	}

	var candidate *publish.Summary
	for i := range summaries {
		summary := summaries[i]
		if !summary.Incomplete() {
			continue
		}
		if summary.CreatedAt.IsZero() || now.Sub(summary.CreatedAt) > cfg.Window {
			continue
		}
		candidate = &summary
		break
	}
	if candidate == nil {
		return nil, DecisionNone, nil
	}

	job, err := reader.GetJob(ctx, candidate.ID)
	if err != nil {
		return nil, DecisionNone, fmt.Errorf("inspect job %d: %w", candidate.ID, err)
	}
	if job.Terminal() {
		// Finished between the list and the fetch.
		return job, DecisionNone, nil
	}

	if now.Sub(candidate.CreatedAt) <= cfg.Grace || job.Running() {
		return job, DecisionResume, nil
	}
	return job, DecisionInterrupted, nil
}
