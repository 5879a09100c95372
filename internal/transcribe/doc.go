// Package transcribe turns source media into a time-aligned transcript via
// an external speech-to-text API, derives chapter markers, and renders SRT
// and WebVTT subtitle artifacts.
//
// The client retries transient HTTP failures (408/429/5xx, network timeouts)
// with exponential backoff up to the configured attempt count. Other 4xx
// responses fail immediately.
package transcribe
