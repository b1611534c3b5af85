package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"iplayercast/internal/services"
)

// Feed describes one configured podcast feed.
type Feed struct {
	Name      string `toml:"name"`
	OutputDir string `toml:"output_dir"`
	Searches  string `toml:"searches"`
	// NoFileTagging overrides fetch.no_file_tagging for this feed when set.
	NoFileTagging *bool `toml:"no_file_tagging"`

	Source string `toml:"-"`
}

// SearchTerms splits the comma-separated search list, dropping blanks.
func (f Feed) SearchTerms() []string {
	parts := strings.Split(f.Searches, ",")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// Validate reports missing or unsafe feed values. Errors are tagged with
// services.ErrConfiguration so the run can skip the feed and carry on.
func (f Feed) Validate() error {
	label := f.Source
	if label == "" {
		label = f.Name
	}
	if strings.TrimSpace(f.Name) == "" {
		return services.Wrap(services.ErrConfiguration, "feed", label, "name must be set", nil)
	}
	if strings.TrimSpace(f.OutputDir) == "" {
		return services.Wrap(services.ErrConfiguration, "feed", label, "output_dir must be set", nil)
	}
	if !filepath.IsLocal(filepath.FromSlash(f.OutputDir)) {
		return services.Wrap(services.ErrConfiguration, "feed", label, fmt.Sprintf("output_dir %q must be a relative path inside paths.output_dir", f.OutputDir), nil)
	}
	if len(f.SearchTerms()) == 0 {
		return services.Wrap(services.ErrConfiguration, "feed", label, "searches must list at least one term", nil)
	}
	return nil
}

// LoadFeed parses and validates a single feed file.
func LoadFeed(path string) (Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Feed{}, services.Wrap(services.ErrConfiguration, "feed", path, "read", err)
	}
	var feed Feed
	if err := toml.Unmarshal(data, &feed); err != nil {
		return Feed{}, services.Wrap(services.ErrConfiguration, "feed", path, "parse", err)
	}
	feed.Source = path
	feed.Name = strings.TrimSpace(feed.Name)
	feed.OutputDir = strings.Trim(strings.TrimSpace(feed.OutputDir), "/")
	if err := feed.Validate(); err != nil {
		return Feed{}, err
	}
	return feed, nil
}

// LoadFeeds reads every *.toml file in dir in lexical order. Feeds that fail to
// load are reported in issues and omitted from the result; the returned error is
// reserved for an unreadable directory.
func LoadFeeds(dir string) ([]Feed, []error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, services.Wrap(services.ErrConfiguration, "feeds", dir, "feed directory not found", err)
		}
		return nil, nil, fmt.Errorf("read feeds directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var (
		feeds  []Feed
		issues []error
	)
	claimed := make(map[string]string, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		feed, err := LoadFeed(path)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		key := filepath.Clean(filepath.FromSlash(feed.OutputDir))
		if owner, ok := claimed[key]; ok {
			issues = append(issues, services.Wrap(services.ErrConfiguration, "feed", path, fmt.Sprintf("output_dir %q already used by %s", feed.OutputDir, owner), nil))
			continue
		}
		claimed[key] = path
		feeds = append(feeds, feed)
	}
	return feeds, issues, nil
}
