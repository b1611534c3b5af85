package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"iplayercast/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	ok := CheckFreeSpace("space", dir, 1)
	if !ok.Passed || !ok.Optional {
		t.Fatalf("expected pass with a one byte minimum, got %#v", ok)
	}
	low := CheckFreeSpace("space", dir, ^uint64(0))
	if low.Passed || !low.Optional {
		t.Fatalf("expected optional warning with an impossible minimum, got %#v", low)
	}
	missing := CheckFreeSpace("space", filepath.Join(dir, "nope"), 1)
	if missing.Passed || !missing.Optional {
		t.Fatalf("expected optional failure for missing path, got %#v", missing)
	}
}

func TestCheckFeedsDirCountsDefinitions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.toml", "b.toml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(""), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	result := CheckFeedsDir(dir)
	if !result.Passed || result.Detail != dir+" (2 feed files)" {
		t.Fatalf("unexpected result %#v", result)
	}

	missing := CheckFeedsDir(filepath.Join(dir, "absent"))
	if missing.Passed || !missing.Optional {
		t.Fatalf("expected optional failure for missing dir, got %#v", missing)
	}
}

func TestRunAllReportsMissingFetchTool(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.FeedsDir = filepath.Join(base, "feeds")
	cfg.Fetch.Binary = filepath.Join(base, "missing-get_iplayer")
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}

	results := RunAll(context.Background(), &cfg)
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "get_iplayer" {
		t.Fatalf("expected only get_iplayer to fail, got %#v", failed)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %#v", results)
	}
}
