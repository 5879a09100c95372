package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the provided contents, creating parent
// directories as needed.
func WriteFile(t testing.TB, path string, contents []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSource creates a dummy source file under the config watch directory
// pattern and returns its path.
func WriteSource(t testing.TB, dir, name string, contents []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	WriteFile(t, path, contents)
	return path
}
