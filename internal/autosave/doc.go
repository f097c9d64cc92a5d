// Package autosave buffers draft edits and persists them under
// debounce-plus-floor timing.
//
// One engine owns one date-scoped draft at a time. Saves are single-flight:
// concurrent triggers join the in-flight save instead of issuing a duplicate
// request. Switching the date forces a synchronous save of dirty content under
// the old date first; a failed save aborts the switch so no edit is lost.
package autosave
