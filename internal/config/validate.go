package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.FeedsDir) == "" {
		return errors.New("paths.feeds_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	// Staging is wiped on every download, so it must not share a tree with
	// anything kept.
	kept := []struct{ key, dir string }{
		{"paths.output_dir", c.Paths.OutputDir},
		{"paths.feeds_dir", c.Paths.FeedsDir},
		{"paths.log_dir", c.Paths.LogDir},
	}
	for _, k := range kept {
		if strings.TrimSpace(k.dir) == "" {
			continue
		}
		if pathsOverlap(c.Paths.StagingDir, k.dir) {
			return fmt.Errorf("paths.staging_dir %q must not overlap %s %q", c.Paths.StagingDir, k.key, k.dir)
		}
	}
	return nil
}

func pathsOverlap(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	return within(a, b) || within(b, a)
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (c *Config) validateFetch() error {
	if strings.TrimSpace(c.Fetch.Binary) == "" {
		return errors.New("fetch.binary must be set")
	}
	return ensureNonNegativeMap(map[string]int{
		"fetch.search_timeout":   c.Fetch.SearchTimeout,
		"fetch.download_timeout": c.Fetch.DownloadTimeout,
		"fetch.refresh_timeout":  c.Fetch.RefreshTimeout,
	})
}

func (c *Config) validateServer() error {
	if c.Server.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("server.base_url is required. Set IPLAYERCAST_SERVER_URL env var or edit %s (create with 'iplayercast config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL, got %q", c.Server.BaseURL)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	topic := strings.TrimSpace(c.Notifications.NtfyTopic)
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full topic URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0 (0 disables the timeout)", key)
		}
	}
	return nil
}
