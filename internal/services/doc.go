// Package services defines the shared error taxonomy and context annotations
// used by every external-service adapter in the pipeline.
//
// Errors carry a sentinel marker (transient, timeout, validation, ...) so the
// workflow manager and retry helpers can classify failures without string
// matching. Context helpers thread item, stage, platform, and correlation
// identifiers through to structured logging.
package services
