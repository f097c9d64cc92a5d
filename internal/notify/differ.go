package notify

import (
	"fmt"
	"strings"

	"daybook/internal/publish"
)

// Kind classifies a notice for presentation.
type Kind string

const (
	KindStarted   Kind = "started"
	KindProgress  Kind = "progress"
	KindSucceeded Kind = "succeeded"
	KindFailed    Kind = "failed"
)

// Notice is one user-visible transition. Consumers key presentation by
// AccountID so a later notice for the same account replaces the earlier one
// instead of stacking.
type Notice struct {
	AccountID int64
	Kind      Kind
	Message   string
}

// Entry is the ledger's memory of one account.
type Entry struct {
	LastID int64
	Status publish.Status
}

// Ledger maps account id to the last-seen (id, status) pair. It grows
// monotonically: LastID never decreases.
type Ledger map[int64]Entry

// Clone returns an independent copy of the ledger.
func (l Ledger) Clone() Ledger {
	next := make(Ledger, len(l))
	for key, entry := range l {
		next[key] = entry
	}
	return next
}

// Diff compares a snapshot of latest-per-account records against the ledger
// and returns the notices to emit plus the next ledger. It is pure: the same
// (snapshot, ledger) always yields the same emissions and next ledger, and
// the input ledger is not mutated.
//
// Rules, per account:
//   - First-ever observation: seed the ledger; emit "started" only when the
//     status is running. History predating the first poll is never backfilled.
//   - New record id on a known account: record it; a running status emits
//     "started", a terminal status emits its completion notice (the run began
//     and finished between polls).
//   - Same id, changed status: emit exactly one notice for the transition.
//   - A record id below the ledger's is stale and ignored.
func Diff(snapshot []StatusRecord, ledger Ledger) ([]Notice, Ledger) {
	next := ledger.Clone()
	var notices []Notice

	for _, record := range snapshot {
		entry, seen := next[record.AccountID]
		switch {
		case !seen:
			next[record.AccountID] = Entry{LastID: record.ID, Status: record.Status}
			if record.Status == publish.StatusRunning {
				notices = append(notices, noticeFor(record, KindStarted))
			}
		case record.ID > entry.LastID:
			next[record.AccountID] = Entry{LastID: record.ID, Status: record.Status}
			switch record.Status {
			case publish.StatusRunning:
				notices = append(notices, noticeFor(record, KindStarted))
			case publish.StatusSucceeded:
				notices = append(notices, noticeFor(record, KindSucceeded))
			case publish.StatusFailed:
				notices = append(notices, noticeFor(record, KindFailed))
			}
		case record.ID == entry.LastID && record.Status != entry.Status:
			next[record.AccountID] = Entry{LastID: entry.LastID, Status: record.Status}
			switch record.Status {
			case publish.StatusRunning:
				notices = append(notices, noticeFor(record, KindProgress))
			case publish.StatusSucceeded:
				notices = append(notices, noticeFor(record, KindSucceeded))
			case publish.StatusFailed:
				notices = append(notices, noticeFor(record, KindFailed))
			}
		}
	}
	return notices, next
}

func noticeFor(record StatusRecord, kind Kind) Notice {
	return Notice{
		AccountID: record.AccountID,
		Kind:      kind,
		Message:   messageFor(record, kind),
	}
}

func messageFor(record StatusRecord, kind Kind) string {
	switch kind {
	case KindStarted:
		return fmt.Sprintf("Account %d: sync started", record.AccountID)
	case KindProgress:
		return fmt.Sprintf("Account %d: sync in progress", record.AccountID)
	case KindSucceeded:
		message := fmt.Sprintf("Account %d: sync complete", record.AccountID)
		if record.DiariesCount > 0 || record.PairedDiariesCount > 0 {
			message = fmt.Sprintf("%s (%d diaries, %d paired)", message, record.DiariesCount, record.PairedDiariesCount)
		}
		return message
	case KindFailed:
		reason := strings.TrimSpace(record.ErrorMessage)
		if reason == "" {
			reason = "sync failed"
		}
		return fmt.Sprintf("Account %d: %s", record.AccountID, reason)
	default:
		return fmt.Sprintf("Account %d: %s", record.AccountID, kind)
	}
}
