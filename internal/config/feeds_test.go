package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"iplayercast/internal/config"
	"iplayercast/internal/services"
)

func writeFeed(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write feed %s: %v", name, err)
	}
	return path
}

func TestSearchTermsSplitsAndTrims(t *testing.T) {
	feed := config.Feed{Searches: " The Archers ,, Archers Omnibus,  "}
	terms := feed.SearchTerms()
	if len(terms) != 2 || terms[0] != "The Archers" || terms[1] != "Archers Omnibus" {
		t.Fatalf("unexpected terms: %q", terms)
	}
}

func TestLoadFeedsSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "b.toml", "name = \"Archers\"\noutput_dir = \"archers/\"\nsearches = \"The Archers\"\nno_file_tagging = true\n")
	writeFeed(t, dir, "a.toml", "name = \"Comedy\"\noutput_dir = \"comedy\"\nsearches = \"News Quiz, Now Show\"\n")
	writeFeed(t, dir, "c.toml", "name = \"Broken\"\nsearches = \"x\"\n")
	writeFeed(t, dir, "d.toml", "this is = = not toml")
	writeFeed(t, dir, "e.toml", "name = \"Escape\"\noutput_dir = \"../elsewhere\"\nsearches = \"x\"\n")
	writeFeed(t, dir, "f.toml", "name = \"Dup\"\noutput_dir = \"comedy\"\nsearches = \"x\"\n")
	writeFeed(t, dir, "notes.txt", "ignored")

	feeds, issues, err := config.LoadFeeds(dir)
	if err != nil {
		t.Fatalf("LoadFeeds returned error: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(feeds))
	}
	if feeds[0].Name != "Comedy" || feeds[1].Name != "Archers" {
		t.Fatalf("expected lexical file order, got %q then %q", feeds[0].Name, feeds[1].Name)
	}
	if feeds[1].OutputDir != "archers" {
		t.Fatalf("expected trailing slash trimmed, got %q", feeds[1].OutputDir)
	}
	if feeds[1].NoFileTagging == nil || !*feeds[1].NoFileTagging {
		t.Fatal("expected no_file_tagging override to be parsed")
	}
	if feeds[0].NoFileTagging != nil {
		t.Fatal("expected unset override to stay nil")
	}
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(issues), issues)
	}
	for _, issue := range issues {
		if !errors.Is(issue, services.ErrConfiguration) {
			t.Fatalf("expected configuration error, got %v", issue)
		}
	}
}

func TestLoadFeedsMissingDirectory(t *testing.T) {
	_, _, err := config.LoadFeeds(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFeedValidateRequiresSearches(t *testing.T) {
	feed := config.Feed{Name: "Empty", OutputDir: "empty", Searches: " , "}
	if err := feed.Validate(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
