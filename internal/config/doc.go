// Package config loads, normalizes, and validates Conveyor's TOML
// configuration. Defaults live in defaults.go; Load layers a config file over
// them, expands paths, and rejects unusable values with actionable messages.
package config
