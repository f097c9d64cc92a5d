package notify_test

import (
	"testing"

	"daybook/internal/notify"
	"daybook/internal/publish"
)

func record(id, account int64, status publish.Status) notify.StatusRecord {
	return notify.StatusRecord{ID: id, AccountID: account, Status: status}
}

func TestDiffFirstObservationSeedsSilently(t *testing.T) {
	snapshot := []notify.StatusRecord{
		record(10, 1, publish.StatusSucceeded),
		record(11, 2, publish.StatusFailed),
	}
	notices, ledger := notify.Diff(snapshot, notify.Ledger{})
	if len(notices) != 0 {
		t.Fatalf("history predating the first poll must not notify, got %v", notices)
	}
	if ledger[1].LastID != 10 || ledger[2].LastID != 11 {
		t.Fatalf("ledger not seeded: %v", ledger)
	}
}

func TestDiffFirstObservationRunningNotifies(t *testing.T) {
	notices, _ := notify.Diff([]notify.StatusRecord{record(10, 1, publish.StatusRunning)}, notify.Ledger{})
	if len(notices) != 1 || notices[0].Kind != notify.KindStarted {
		t.Fatalf("notices = %v, want one started", notices)
	}
}

func TestDiffTransitionEmitsExactlyOnce(t *testing.T) {
	ledger := notify.Ledger{1: {LastID: 10, Status: publish.StatusRunning}}
	snapshot := []notify.StatusRecord{record(10, 1, publish.StatusSucceeded)}

	notices, next := notify.Diff(snapshot, ledger)
	if len(notices) != 1 || notices[0].Kind != notify.KindSucceeded {
		t.Fatalf("notices = %v, want one succeeded", notices)
	}

	// The identical snapshot observed again must be silent.
	notices, _ = notify.Diff(snapshot, next)
	if len(notices) != 0 {
		t.Fatalf("repeated snapshot re-notified: %v", notices)
	}
}

func TestDiffNewRunOnKnownAccount(t *testing.T) {
	ledger := notify.Ledger{1: {LastID: 10, Status: publish.StatusSucceeded}}

	notices, next := notify.Diff([]notify.StatusRecord{record(12, 1, publish.StatusRunning)}, ledger)
	if len(notices) != 1 || notices[0].Kind != notify.KindStarted {
		t.Fatalf("notices = %v, want started for the new run", notices)
	}

	// A run that began and finished between polls still reports its outcome.
	notices, _ = notify.Diff([]notify.StatusRecord{record(13, 1, publish.StatusFailed)}, next)
	if len(notices) != 1 || notices[0].Kind != notify.KindFailed {
		t.Fatalf("notices = %v, want failed for the skipped run", notices)
	}
}

func TestDiffIgnoresStaleRecords(t *testing.T) {
	ledger := notify.Ledger{1: {LastID: 20, Status: publish.StatusSucceeded}}
	notices, next := notify.Diff([]notify.StatusRecord{record(15, 1, publish.StatusFailed)}, ledger)
	if len(notices) != 0 {
		t.Fatalf("stale record must be ignored, got %v", notices)
	}
	if next[1].LastID != 20 {
		t.Fatalf("ledger regressed to %d", next[1].LastID)
	}
}

func TestDiffDoesNotMutateInputLedger(t *testing.T) {
	ledger := notify.Ledger{1: {LastID: 10, Status: publish.StatusRunning}}
	_, _ = notify.Diff([]notify.StatusRecord{record(10, 1, publish.StatusSucceeded)}, ledger)
	if ledger[1].Status != publish.StatusRunning {
		t.Fatal("Diff mutated its input ledger")
	}
}

func TestDiffMessagesCarryCounters(t *testing.T) {
	ledger := notify.Ledger{1: {LastID: 10, Status: publish.StatusRunning}}
	snapshot := []notify.StatusRecord{{
		ID: 10, AccountID: 1, Status: publish.StatusSucceeded,
		DiariesCount: 4, PairedDiariesCount: 3,
	}}
	notices, _ := notify.Diff(snapshot, ledger)
	if len(notices) != 1 {
		t.Fatalf("notices = %v", notices)
	}
	want := "Account 1: sync complete (4 diaries, 3 paired)"
	if notices[0].Message != want {
		t.Fatalf("message = %q, want %q", notices[0].Message, want)
	}
}

func TestAnyRunning(t *testing.T) {
	if notify.AnyRunning([]notify.StatusRecord{record(1, 1, publish.StatusSucceeded)}) {
		t.Fatal("no running record, AnyRunning must be false")
	}
	if !notify.AnyRunning([]notify.StatusRecord{record(1, 1, publish.StatusRunning)}) {
		t.Fatal("running record missed")
	}
}
