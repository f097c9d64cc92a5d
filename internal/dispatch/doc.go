// Package dispatch runs one unit of work per target under a fixed
// concurrency limit, preserving input order in the results and isolating
// failures per target. It backs the legacy client-driven publish mode for
// servers without background job execution.
package dispatch
