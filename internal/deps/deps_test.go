package deps

import (
	"os"
	"path/filepath"
	"testing"

	"iplayercast/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestFetchRequirementsFollowTagging(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.Binary = "/opt/get_iplayer"

	reqs := FetchRequirements(&cfg)
	if reqs[0].Command != "/opt/get_iplayer" || reqs[0].Optional {
		t.Fatalf("expected mandatory configured binary first, got %#v", reqs[0])
	}
	if len(reqs) != 3 {
		t.Fatalf("expected tagging helper when tagging enabled, got %d requirements", len(reqs))
	}

	cfg.Fetch.NoFileTagging = true
	if got := len(FetchRequirements(&cfg)); got != 2 {
		t.Fatalf("expected tagging helper dropped, got %d requirements", got)
	}
}
