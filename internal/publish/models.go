package publish

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// statusRank orders statuses along the monotonic item lifecycle
// pending -> running -> {succeeded|failed}.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusRunning:   1,
	StatusSucceeded: 2,
	StatusFailed:    2,
}

// ParseStatus normalizes a server status string. Legacy servers report
// "success" and "unknown"; both spellings are accepted.
func ParseStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "running":
		return StatusRunning
	case "succeeded", "success":
		return StatusSucceeded
	case "failed", "partial":
		return StatusFailed
	default:
		return StatusPending
	}
}

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Item is the per-account result row of a job.
type Item struct {
	AccountID int64
	Status    Status
	// RemoteRef is the diary id assigned by the target service once the
	// entry lands there.
	RemoteRef    string
	ErrorMessage string
}

// Job is one background multi-account publish run.
type Job struct {
	ID               int64
	Date             string
	Content          string
	TargetAccountIDs []int64
	CreatedAt        time.Time
	Items            []Item
}

// Summary is the history-list view of a job: identity plus aggregate counters.
type Summary struct {
	ID               int64
	Date             string
	TargetAccountIDs []int64
	CreatedAt        time.Time
	Succeeded        int
	Failed           int
}

// Total returns the number of targets in the run.
func (s Summary) Total() int { return len(s.TargetAccountIDs) }

// Done returns the number of items in a terminal state.
func (s Summary) Done() int { return s.Succeeded + s.Failed }

// Incomplete reports whether the run still has unfinished items.
func (s Summary) Incomplete() bool { return s.Total() > 0 && s.Done() < s.Total() }

// Counts tallies terminal item states.
func (j *Job) Counts() (succeeded, failed int) {
	for _, item := range j.Items {
		switch item.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		}
	}
	return succeeded, failed
}

// Total returns the number of targets in the run. Jobs from older servers may
// omit the explicit target list; the item list is the fallback.
func (j *Job) Total() int {
	if n := len(j.TargetAccountIDs); n > 0 {
		return n
	}
	return len(j.Items)
}

// Done returns the number of items in a terminal state.
func (j *Job) Done() int {
	succeeded, failed := j.Counts()
	return succeeded + failed
}

// Terminal reports whether every target has reached an end state.
func (j *Job) Terminal() bool {
	total := j.Total()
	return total > 0 && j.Done() >= total
}

// Running reports whether any item is currently executing.
func (j *Job) Running() bool {
	for _, item := range j.Items {
		if item.Status == StatusRunning {
			return true
		}
	}
	return false
}

// ItemFor returns the item for an account id, or nil.
func (j *Job) ItemFor(accountID int64) *Item {
	for i := range j.Items {
		if j.Items[i].AccountID == accountID {
			return &j.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.TargetAccountIDs = append([]int64(nil), j.TargetAccountIDs...)
	cp.Items = append([]Item(nil), j.Items...)
	return &cp
}
