// Package publish models multi-account publish jobs and orchestrates their
// creation, start, and read-back against the diary-store API.
//
// A job is created once per publish action and mutated only by the server as
// per-account items complete; the client re-fetches it and reconciles local
// placeholder rows with the server copy through Merge.
package publish
