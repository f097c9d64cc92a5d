package notify

import (
	"time"

	"daybook/internal/publish"
)

// StatusRecord is the latest sync status for one account as reported by the
// status feed.
type StatusRecord struct {
	// ID is the server-assigned, increasing record id.
	ID        int64
	AccountID int64
	Status    publish.Status
	StartedAt time.Time
	// Counters from the sync run; zero when the server omitted them.
	DiariesCount       int
	PairedDiariesCount int
	ErrorMessage       string
}

// AnyRunning reports whether any record in the snapshot is mid-run. The
// sync-status poller uses this to pick its base cadence.
func AnyRunning(records []StatusRecord) bool {
	for _, record := range records {
		if record.Status == publish.StatusRunning {
			return true
		}
	}
	return false
}
