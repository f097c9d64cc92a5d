// Package statestore keeps daybook's small client-side state in SQLite:
// persisted preferences (the last-used target selection) and a journal of
// publish runs this client has created or observed. A file lock guards the
// state directory against concurrent daybook processes.
package statestore
