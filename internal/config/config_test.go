package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conveyor/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Validation.AcceptThreshold != 0.70 {
		t.Fatalf("accept threshold = %v, want 0.70", cfg.Validation.AcceptThreshold)
	}
	if got := cfg.EnabledPlatforms(); len(got) != 3 {
		t.Fatalf("default platforms = %v", got)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[generator]
platforms = ["YouTube", " wordpress ", "youtube", ""]

[validation]
accept_threshold = 0.8
dimension_floor = 0.5

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	platforms := cfg.EnabledPlatforms()
	if len(platforms) != 2 || platforms[0] != "youtube" || platforms[1] != "wordpress" {
		t.Fatalf("platforms = %v", platforms)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format = %q", cfg.Logging.Format)
	}
	if cfg.Validation.AcceptThreshold != 0.8 {
		t.Fatalf("accept threshold = %v", cfg.Validation.AcceptThreshold)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.AcceptThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold > 1")
	}

	cfg = config.Default()
	cfg.Validation.DimensionFloor = 0.9
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "dimension_floor") {
		t.Fatalf("expected dimension_floor error, got %v", err)
	}
}

func TestValidateRejectsBadSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Schedule = "not a schedule"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid cron schedule")
	}
	cfg.Metrics.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled metrics should skip schedule validation: %v", err)
	}
}

func TestValidateRejectsEmptyPlatforms(t *testing.T) {
	cfg := config.Default()
	cfg.Generator.Platforms = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty platform list")
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
