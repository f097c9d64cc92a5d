// Package notify turns polled status snapshots into user-visible notices.
//
// The differ compares each snapshot against a ledger of last-seen (id, status)
// pairs per account and emits every transition exactly once. Delivery is
// pluggable: notices can be pushed to an ntfy topic or dropped.
package notify
