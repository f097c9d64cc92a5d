package dispatch

import (
	"context"

	"github.com/sourcegraph/conc/iter"
)

// DefaultLimit is the in-flight cap used when the caller passes zero.
const DefaultLimit = 5

// Result is the settled outcome of one unit of work.
type Result[R any] struct {
	Value R
	Err   error
}

// Fulfilled reports whether the unit completed without error.
func (r Result[R]) Fulfilled() bool { return r.Err == nil }

// Clamp bounds a concurrency limit to [1, n].
func Clamp(limit, n int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > n {
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Run executes fn once per target with at most Clamp(limit, len(targets))
// units in flight. Results are returned in target order regardless of
// completion order; a failed unit records its error and never cancels or
// blocks its siblings.
func Run[T, R any](ctx context.Context, targets []T, limit int, fn func(ctx context.Context, target T) (R, error)) []Result[R] {
	if len(targets) == 0 {
		return nil
	}
	results := make([]Result[R], len(targets))
	runner := iter.Iterator[T]{MaxGoroutines: Clamp(limit, len(targets))}
	runner.ForEachIdx(targets, func(i int, target *T) {
		value, err := fn(ctx, *target)
		results[i] = Result[R]{Value: value, Err: err}
	})
	return results
}
