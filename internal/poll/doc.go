// Package poll drives adaptive status polling.
//
// A Session follows one publish job until every target reaches a terminal
// state. A Watcher follows the per-account sync feed at a cadence that adapts
// to activity and failure history, and suspends entirely while the hosting
// view is hidden. Both are cooperative: a cancel flag is checked before
// re-arming a delay and before applying a just-received response, so a
// response that arrives after cancellation is discarded without side effects.
package poll
