// Package preflight runs startup readiness checks: directory access,
// service credentials, and external binary availability. Results are
// advisory; the daemon logs failures and starts anyway so a missing
// optional tool never blocks queue processing.
package preflight
