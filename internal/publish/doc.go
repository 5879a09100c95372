// Package publish fans accepted drafts out to external platform adapters
// (WordPress, YouTube, Naver Blog). Each platform dispatch retries
// independently with bounded backoff; the item publishes when at least one
// platform succeeds. Adapters also expose post-publication metrics reads
// for the measurement stage.
package publish
