package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"conveyor/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Temp", dir)
	if !result.Passed {
		t.Fatalf("existing directory should pass: %s", result.Detail)
	}

	result = CheckDirectoryAccess("Missing", filepath.Join(dir, "absent"))
	if result.Passed {
		t.Fatal("missing directory should fail")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result = CheckDirectoryAccess("File", file)
	if result.Passed {
		t.Fatal("regular file should fail the directory check")
	}
}

func TestCheckAPIKey(t *testing.T) {
	if result := CheckAPIKey("Transcriber", "  "); result.Passed {
		t.Fatal("blank key should fail")
	}
	if result := CheckAPIKey("Transcriber", "sk-test"); !result.Passed {
		t.Fatal("configured key should pass")
	}
}

func TestRunAllReportsMissingDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.Paths.WatchDir = filepath.Join(cfg.Paths.WatchDir, "never-created")

	results := RunAll(context.Background(), cfg)
	failed := Failed(results)

	foundWatch := false
	for _, result := range failed {
		if result.Name == "Watch directory" {
			foundWatch = true
		}
	}
	if !foundWatch {
		t.Fatalf("expected watch directory failure, got %+v", failed)
	}
}
