// Package logging constructs the application's slog loggers: a compact
// console handler for interactive use and a JSON handler for machine
// consumption, plus attr helpers and context-derived field decoration.
package logging
