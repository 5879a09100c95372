// Package media provides a typed wrapper around ffprobe JSON output and
// converts probe results into stored item metadata. Probing is best effort:
// a failed probe degrades to extension-derived metadata instead of blocking
// ingestion.
package media
