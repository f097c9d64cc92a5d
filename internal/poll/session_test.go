package poll_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"daybook/internal/logging"
	"daybook/internal/poll"
	"daybook/internal/publish"
)

// scriptedReader returns the next scripted response per GetJob call, sticking
// to the last one once the script runs out.
type scriptedReader struct {
	mu      sync.Mutex
	script  []func() (*publish.Job, error)
	calls   int
	release chan struct{} // when set, GetJob blocks until closed
}

func (r *scriptedReader) GetJob(ctx context.Context, jobID int64) (*publish.Job, error) {
	r.mu.Lock()
	index := r.calls
	r.calls++
	if index >= len(r.script) {
		index = len(r.script) - 1
	}
	step := r.script[index]
	release := r.release
	r.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return step()
}

func jobWith(statuses ...publish.Status) *publish.Job {
	job := &publish.Job{ID: 1, Date: "2026-08-26"}
	for i, status := range statuses {
		accountID := int64(i + 1)
		job.TargetAccountIDs = append(job.TargetAccountIDs, accountID)
		job.Items = append(job.Items, publish.Item{AccountID: accountID, Status: status})
	}
	return job
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop in time")
	}
}

func TestSessionStopsAtTerminal(t *testing.T) {
	reader := &scriptedReader{script: []func() (*publish.Job, error){
		func() (*publish.Job, error) { return jobWith(publish.StatusRunning, publish.StatusPending), nil },
		func() (*publish.Job, error) { return jobWith(publish.StatusSucceeded, publish.StatusFailed), nil },
	}}

	var (
		mu        sync.Mutex
		snapshots []*publish.Job
	)
	session := poll.NewSession(reader, 1, poll.SessionConfig{
		Interval:    time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
	}, logging.NewNop(), func(job *publish.Job) {
		mu.Lock()
		snapshots = append(snapshots, job)
		mu.Unlock()
	})
	session.Start(context.Background())
	waitDone(t, session.Done())

	if session.State() != poll.StateTerminal {
		t.Fatalf("state = %q, want terminal", session.State())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) < 2 {
		t.Fatalf("got %d snapshots, want at least 2", len(snapshots))
	}
	final := snapshots[len(snapshots)-1]
	if !final.Terminal() {
		t.Fatalf("final snapshot not terminal: %+v", final)
	}
}

func TestSessionMergesSeededLocalState(t *testing.T) {
	// The seeded job carries an in-transit failure annotation the server does
	// not know about; the merged snapshots must keep it while the server still
	// reports the item as non-terminal.
	seed := jobWith(publish.StatusFailed, publish.StatusPending)
	seed.Items[0].ErrorMessage = "connection reset"

	reader := &scriptedReader{script: []func() (*publish.Job, error){
		func() (*publish.Job, error) { return jobWith(publish.StatusRunning, publish.StatusSucceeded), nil },
		func() (*publish.Job, error) { return jobWith(publish.StatusRunning, publish.StatusSucceeded), nil },
	}}

	updates := make(chan *publish.Job, 16)
	session := poll.NewSession(reader, 1, poll.SessionConfig{
		Interval:    time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
	}, logging.NewNop(), func(job *publish.Job) {
		select {
		case updates <- job:
		default:
		}
	})
	session.Seed(seed)
	session.Start(context.Background())

	select {
	case snapshot := <-updates:
		item := snapshot.ItemFor(1)
		if item == nil || item.Status != publish.StatusFailed || item.ErrorMessage != "connection reset" {
			t.Fatalf("local annotation lost in merge: %+v", item)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot delivered")
	}

	session.Cancel()
	waitDone(t, session.Done())
}

func TestSessionCancelDiscardsInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	reader := &scriptedReader{
		release: release,
		script: []func() (*publish.Job, error){
			func() (*publish.Job, error) { return jobWith(publish.StatusSucceeded), nil },
		},
	}

	updated := make(chan struct{}, 1)
	session := poll.NewSession(reader, 1, poll.SessionConfig{
		Interval: time.Millisecond,
	}, logging.NewNop(), func(*publish.Job) {
		select {
		case updated <- struct{}{}:
		default:
		}
	})
	session.Start(context.Background())

	// Let the fetch get in flight, then cancel and release it.
	time.Sleep(20 * time.Millisecond)
	session.Cancel()
	close(release)
	waitDone(t, session.Done())

	if session.State() != poll.StateCancelled {
		t.Fatalf("state = %q, want cancelled", session.State())
	}
	select {
	case <-updated:
		t.Fatal("stale in-flight response produced a visible update after cancel")
	default:
	}
}

func TestSessionRetriesTransientFailures(t *testing.T) {
	attempts := 0
	reader := &scriptedReader{script: []func() (*publish.Job, error){
		func() (*publish.Job, error) { attempts++; return nil, errors.New("timeout") },
		func() (*publish.Job, error) { attempts++; return nil, errors.New("timeout") },
		func() (*publish.Job, error) { attempts++; return jobWith(publish.StatusSucceeded), nil },
	}}

	session := poll.NewSession(reader, 1, poll.SessionConfig{
		Interval:    time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
	}, logging.NewNop(), nil)
	session.Start(context.Background())
	waitDone(t, session.Done())

	if session.State() != poll.StateTerminal {
		t.Fatalf("state = %q, want terminal after retries", session.State())
	}
	if attempts < 3 {
		t.Fatalf("attempts = %d, want the poller to keep retrying", attempts)
	}
}

func TestSessionStartIsIdempotent(t *testing.T) {
	reader := &scriptedReader{script: []func() (*publish.Job, error){
		func() (*publish.Job, error) { return jobWith(publish.StatusSucceeded), nil },
	}}
	session := poll.NewSession(reader, 1, poll.SessionConfig{Interval: time.Millisecond}, logging.NewNop(), nil)
	session.Start(context.Background())
	session.Start(context.Background()) // second call must be a no-op
	waitDone(t, session.Done())
	if session.State() != poll.StateTerminal {
		t.Fatalf("state = %q, want terminal", session.State())
	}
}
