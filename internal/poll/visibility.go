package poll

// VisibilitySource reports whether the hosting view is currently visible.
// Injected rather than read from ambient globals so tests can drive it.
type VisibilitySource interface {
	// Visible reports the current state.
	Visible() bool
	// Changes delivers a value on every visibility flip. The channel must
	// never be closed while a watcher is running.
	Changes() <-chan bool
}

// AlwaysVisible is the visibility source for headless hosts (the CLI): the
// view never hides, so the watcher never suspends.
type AlwaysVisible struct{}

func (AlwaysVisible) Visible() bool { return true }

func (AlwaysVisible) Changes() <-chan bool { return nil }
