// Package api is the HTTP JSON client for the diary-store backend.
//
// Job-mutating calls use a client without a timeout because a publish job may
// legitimately run long; reads use a bounded timeout so a stuck poll degrades
// to a retry. Errors are classified with the sentinel markers in errors.go.
package api
