// Package queue persists the content pipeline's state in SQLite. It owns the
// content item lifecycle, per-platform drafts and publication records, the
// append-only stage audit log, and post-publication metrics snapshots.
//
// The fingerprint column carries a UNIQUE index, so registering an item is an
// atomic register-or-reject operation even with concurrent ingestors.
package queue
