package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("pipeline ready", logging.String("component", "test"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "conveyor.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "pipeline ready") {
		t.Fatalf("log file missing record: %s", data)
	}
	if !strings.Contains(string(data), `"level":"info"`) {
		t.Fatalf("expected lowercase level key: %s", data)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithItemID(context.Background(), "abc-123")
	ctx = services.WithStage(ctx, "transcriber")
	ctx = services.WithPlatform(ctx, "youtube")

	fields := logging.ContextFields(ctx)
	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		keys[f.Key] = true
	}
	for _, want := range []string{logging.FieldItemID, logging.FieldStage, logging.FieldPlatform} {
		if !keys[want] {
			t.Fatalf("missing context field %s in %v", want, fields)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("should not panic")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger should be disabled")
	}
}
