// Package measure polls platform adapters on a cron schedule for
// post-publication performance numbers and appends them as snapshots on the
// content record. Collection never changes an item's pipeline stage.
package measure
