package poll_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"daybook/internal/logging"
	"daybook/internal/notify"
	"daybook/internal/poll"
	"daybook/internal/publish"
)

type fakeFeed struct {
	mu       sync.Mutex
	snapshot []notify.StatusRecord
	calls    int
}

func (f *fakeFeed) LatestStatuses(context.Context, int) ([]notify.StatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]notify.StatusRecord(nil), f.snapshot...), nil
}

func (f *fakeFeed) set(snapshot []notify.StatusRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snapshot
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeVisibility struct {
	mu      sync.Mutex
	visible bool
	changes chan bool
}

func newFakeVisibility(visible bool) *fakeVisibility {
	return &fakeVisibility{visible: visible, changes: make(chan bool, 4)}
}

func (v *fakeVisibility) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

func (v *fakeVisibility) Changes() <-chan bool { return v.changes }

func (v *fakeVisibility) flip(visible bool) {
	v.mu.Lock()
	v.visible = visible
	v.mu.Unlock()
	v.changes <- visible
}

func testWatcherConfig() poll.WatcherConfig {
	return poll.WatcherConfig{
		ActiveInterval: time.Millisecond,
		IdleInterval:   2 * time.Millisecond,
		MaxInterval:    4 * time.Millisecond,
		Limit:          10,
	}
}

func stopWatcher(t *testing.T, watcher *poll.Watcher) {
	t.Helper()
	watcher.Cancel()
	select {
	case <-watcher.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop in time")
	}
}

func TestWatcherEmitsTransitionsOnce(t *testing.T) {
	feed := &fakeFeed{}
	feed.set([]notify.StatusRecord{{ID: 10, AccountID: 1, Status: publish.StatusRunning}})

	notices := make(chan notify.Notice, 16)
	watcher := poll.NewWatcher(feed, nil, testWatcherConfig(), logging.NewNop(), func(notice notify.Notice) {
		notices <- notice
	}, nil)
	watcher.Start(context.Background())

	waitNotice := func(want notify.Kind) {
		t.Helper()
		select {
		case notice := <-notices:
			if notice.Kind != want {
				t.Fatalf("notice = %+v, want kind %q", notice, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no %q notice delivered", want)
		}
	}

	waitNotice(notify.KindStarted)
	feed.set([]notify.StatusRecord{{ID: 10, AccountID: 1, Status: publish.StatusSucceeded}})
	waitNotice(notify.KindSucceeded)

	// The unchanged snapshot keeps being polled but must stay silent.
	time.Sleep(30 * time.Millisecond)
	select {
	case notice := <-notices:
		t.Fatalf("unchanged snapshot re-notified: %+v", notice)
	default:
	}

	stopWatcher(t, watcher)
}

func TestWatcherSuspendsWhileHidden(t *testing.T) {
	feed := &fakeFeed{}
	visibility := newFakeVisibility(false)

	visibleCalls := make(chan struct{}, 4)
	watcher := poll.NewWatcher(feed, visibility, testWatcherConfig(), logging.NewNop(), nil, func() {
		select {
		case visibleCalls <- struct{}{}:
		default:
		}
	})
	watcher.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	if calls := feed.callCount(); calls != 0 {
		t.Fatalf("hidden watcher polled %d times, want 0", calls)
	}

	visibility.flip(true)
	select {
	case <-visibleCalls:
	case <-time.After(5 * time.Second):
		t.Fatal("onVisible hook never ran after the view returned")
	}

	deadline := time.Now().Add(5 * time.Second)
	for feed.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not poll after becoming visible")
		}
		time.Sleep(time.Millisecond)
	}

	stopWatcher(t, watcher)
}

func TestWatcherRefreshHookFiresOncePerRegain(t *testing.T) {
	feed := &fakeFeed{}
	visibility := newFakeVisibility(false)

	var refreshes atomic.Int32
	watcher := poll.NewWatcher(feed, visibility, testWatcherConfig(), logging.NewNop(), nil, func() {
		refreshes.Add(1)
	})
	watcher.Start(context.Background())

	waitRefreshes := func(want int32) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for refreshes.Load() < want {
			if time.Now().After(deadline) {
				t.Fatalf("refreshes = %d, want %d", refreshes.Load(), want)
			}
			time.Sleep(time.Millisecond)
		}
		// Give a spurious second invocation time to show up.
		time.Sleep(30 * time.Millisecond)
		if got := refreshes.Load(); got != want {
			t.Fatalf("refreshes = %d after one regain, want exactly %d", got, want)
		}
	}

	// First regain: the watcher is parked in its hidden wait.
	visibility.flip(true)
	waitRefreshes(1)

	// Second regain: the flip to hidden lands in the delay window, so the
	// run loop (not the hidden wait) observes it first.
	visibility.flip(false)
	time.Sleep(20 * time.Millisecond)
	visibility.flip(true)
	waitRefreshes(2)

	stopWatcher(t, watcher)
}

func TestWatcherLedgerSurvivesAcrossPolls(t *testing.T) {
	feed := &fakeFeed{}
	feed.set([]notify.StatusRecord{{ID: 5, AccountID: 3, Status: publish.StatusSucceeded}})

	watcher := poll.NewWatcher(feed, nil, testWatcherConfig(), logging.NewNop(), nil, nil)
	watcher.Start(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for {
		ledger := watcher.Ledger()
		if entry, ok := ledger[3]; ok && entry.LastID == 5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("ledger never recorded the observed account")
		}
		time.Sleep(time.Millisecond)
	}

	stopWatcher(t, watcher)
}
