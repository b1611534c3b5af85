package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteText writes body to path, creating parent directories.
func WriteText(t testing.TB, path, body string) {
	t.Helper()
	write(t, path, body, 0o644)
}

// WriteScript writes an executable shell script to path. Tests use it to
// stand in for get_iplayer and the optional helpers.
func WriteScript(t testing.TB, path, body string) {
	t.Helper()
	write(t, path, body, 0o755)
}

func write(t testing.TB, path, body string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), mode); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, mode); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
}
