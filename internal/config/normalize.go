package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize(configDir string) error {
	if err := c.normalizePaths(configDir); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeServer()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths(configDir string) error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FeedsDir) == "" {
		c.Paths.FeedsDir = defaultFeedsDir
	}
	if c.Paths.FeedsDir, err = expandRelative(configDir, strings.TrimSpace(c.Paths.FeedsDir)); err != nil {
		return fmt.Errorf("paths.feeds_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir()
	}
	if c.Paths.StagingDir, err = expandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.Binary = strings.TrimSpace(c.Fetch.Binary)
	if c.Fetch.Binary == "" {
		if value, ok := os.LookupEnv("GET_IPLAYER"); ok {
			c.Fetch.Binary = strings.TrimSpace(value)
		}
	}
	if c.Fetch.Binary == "" {
		c.Fetch.Binary = defaultFetchBinary
	}
	c.Fetch.Modes = strings.TrimSpace(c.Fetch.Modes)
	if c.Fetch.Modes == "" {
		c.Fetch.Modes = defaultFetchModes
	}
}

func (c *Config) normalizeServer() {
	c.Server.BaseURL = strings.TrimSpace(c.Server.BaseURL)
	if c.Server.BaseURL == "" {
		if value, ok := os.LookupEnv("IPLAYERCAST_SERVER_URL"); ok {
			c.Server.BaseURL = strings.TrimSpace(value)
		}
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
