// Package daemon owns the long-running conveyor process: it enforces
// single-instance execution with a file lock and supervises the workflow
// manager and the metrics poller.
package daemon
