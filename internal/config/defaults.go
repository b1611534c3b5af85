package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigPath      = "~/.config/iplayercast/config.toml"
	defaultOutputDir       = "~/podcasts"
	defaultFeedsDir        = "~/.config/iplayercast/feeds"
	defaultLogDir          = "~/.local/share/iplayercast/logs"
	defaultFetchBinary     = "get_iplayer"
	defaultFetchModes      = "best"
	defaultSearchTimeout   = 300
	defaultDownloadTimeout = 4 * 60 * 60
	defaultRefreshTimeout  = 30 * 60
	defaultNtfyTimeout     = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			FeedsDir:   defaultFeedsDir,
			StagingDir: defaultStagingDir(),
			LogDir:     defaultLogDir,
		},
		Fetch: Fetch{
			Binary:          defaultFetchBinary,
			Modes:           defaultFetchModes,
			RefreshCache:    true,
			SearchTimeout:   defaultSearchTimeout,
			DownloadTimeout: defaultDownloadTimeout,
			RefreshTimeout:  defaultRefreshTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultStagingDir() string {
	return filepath.Join(os.TempDir(), "iplayercast")
}
