package statestore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"daybook/internal/statestore"
)

func openStore(t *testing.T) *statestore.Store {
	t.Helper()
	store, err := statestore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLastSelectionRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if got, err := store.LastSelection(ctx); err != nil || got != nil {
		t.Fatalf("empty store: selection = %v, err = %v", got, err)
	}

	if err := store.SaveLastSelection(ctx, []int64{4, 2, 9}); err != nil {
		t.Fatalf("SaveLastSelection: %v", err)
	}
	got, err := store.LastSelection(ctx)
	if err != nil {
		t.Fatalf("LastSelection: %v", err)
	}
	if len(got) != 3 || got[0] != 4 || got[1] != 2 || got[2] != 9 {
		t.Fatalf("selection = %v, want [4 2 9]", got)
	}

	// A later publish replaces the stored selection.
	if err := store.SaveLastSelection(ctx, []int64{7}); err != nil {
		t.Fatalf("SaveLastSelection: %v", err)
	}
	got, err = store.LastSelection(ctx)
	if err != nil {
		t.Fatalf("LastSelection: %v", err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("selection = %v, want [7]", got)
	}
}

func TestRunLogUpsert(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	created := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)

	if err := store.RecordRun(ctx, statestore.RunRecord{
		JobID: 11, Date: "2026-08-26", CreatedAt: created, LastDone: 0, LastTotal: 3,
	}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := store.RecordRun(ctx, statestore.RunRecord{
		JobID: 11, Date: "2026-08-26", CreatedAt: created, LastDone: 3, LastTotal: 3,
	}); err != nil {
		t.Fatalf("RecordRun update: %v", err)
	}
	if err := store.RecordRun(ctx, statestore.RunRecord{
		JobID: 12, Date: "2026-08-27", LastTotal: 1,
	}); err != nil {
		t.Fatalf("RecordRun second job: %v", err)
	}

	records, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (upsert, not append)", len(records))
	}
	if records[0].JobID != 12 {
		t.Fatalf("records not newest first: %+v", records)
	}
	if records[1].LastDone != 3 || records[1].LastTotal != 3 {
		t.Fatalf("progress counters not updated: %+v", records[1])
	}
	if !records[1].CreatedAt.Equal(created) {
		t.Fatalf("created_at drifted on update: %v", records[1].CreatedAt)
	}
}

func TestOpenRejectsSecondProcess(t *testing.T) {
	dir := t.TempDir()
	first, err := statestore.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()

	if _, err := statestore.Open(dir); !errors.Is(err, statestore.ErrLocked) {
		t.Fatalf("second Open err = %v, want ErrLocked", err)
	}
}

func TestReopenAfterClose(t *testing.T) {
	dir := t.TempDir()
	store, err := statestore.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.SaveLastSelection(context.Background(), []int64{1}); err != nil {
		t.Fatalf("SaveLastSelection: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := statestore.Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.LastSelection(context.Background())
	if err != nil || len(got) != 1 || got[0] != 1 {
		t.Fatalf("selection after reopen = %v, err = %v", got, err)
	}
}
