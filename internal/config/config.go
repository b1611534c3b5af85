package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	FeedsDir   string `toml:"feeds_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Fetch contains configuration for the external get_iplayer tool.
type Fetch struct {
	Binary          string `toml:"binary"`
	Modes           string `toml:"modes"`
	NoFileTagging   bool   `toml:"no_file_tagging"`
	RefreshCache    bool   `toml:"refresh_cache"`
	SearchTimeout   int    `toml:"search_timeout"`
	DownloadTimeout int    `toml:"download_timeout"`
	RefreshTimeout  int    `toml:"refresh_timeout"`
}

// Server describes where the rendered feeds and media are published.
type Server struct {
	BaseURL string `toml:"base_url"`
}

// Notifications configures optional ntfy alerts.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all global configuration values for iplayercast.
//
// Configuration sections by subsystem:
//   - Paths: output root, feed definitions, staging and log directories
//   - Fetch: get_iplayer binary, download modes, tagging and timeouts
//   - Server: base URL used to build enclosure links
//   - Notifications: ntfy topic for new-episode and failure alerts
//   - Logging: log format and level
//
// Per-feed settings live in separate files under Paths.FeedsDir; see LoadFeeds.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Fetch         Fetch         `toml:"fetch"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("iplayercast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The staging
// directory is owned by the downloader and recreated per programme, so only its
// parent is created here.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, filepath.Dir(c.Paths.StagingDir)}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FeedDir returns the absolute directory a feed's media, history, and feed.xml live in.
func (c *Config) FeedDir(feed Feed) string {
	return filepath.Join(c.Paths.OutputDir, filepath.FromSlash(feed.OutputDir))
}

// LogPath returns the run log file under paths.log_dir, or "" when file
// logging is disabled.
func (c *Config) LogPath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "iplayercast.log")
}

// LockPath returns the run lock guarding the output tree against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.OutputDir, ".iplayercast.lock")
}

// SearchTimeout returns the listing timeout; zero means no limit.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Fetch.SearchTimeout) * time.Second
}

// DownloadTimeout returns the per-programme fetch timeout; zero means no limit.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Fetch.DownloadTimeout) * time.Second
}

// RefreshTimeout returns the cache refresh timeout; zero means no limit.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.Fetch.RefreshTimeout) * time.Second
}

// NotifyTimeout returns the ntfy request timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// TagFiles reports whether downloads for feed should carry file tags. A feed-level
// override wins over the global setting.
func (c *Config) TagFiles(feed Feed) bool {
	if feed.NoFileTagging != nil {
		return !*feed.NoFileTagging
	}
	return !c.Fetch.NoFileTagging
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// expandRelative expands pathValue, anchoring relative paths at base instead of
// the working directory.
func expandRelative(base, pathValue string) (string, error) {
	if pathValue == "" || strings.HasPrefix(pathValue, "~") || filepath.IsAbs(pathValue) || base == "" {
		return expandPath(pathValue)
	}
	return expandPath(filepath.Join(base, pathValue))
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
