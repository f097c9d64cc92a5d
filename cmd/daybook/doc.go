// Command daybook is the CLI for the diary publish dashboard: it creates and
// watches multi-account publish jobs, edits date-scoped drafts with autosave
// semantics, and follows per-account sync status.
package main
