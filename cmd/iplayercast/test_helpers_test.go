package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"iplayercast/internal/config"
	"iplayercast/internal/testsupport"
)

const stubGetIplayer = `#!/bin/sh
out=""
pid=""
list=""
for arg in "$@"; do
	case "$arg" in
		--output=*) out="${arg#--output=}" ;;
		--pid=*) pid="${arg#--pid=}" ;;
		--listformat=*) list=1 ;;
	esac
done
if [ -n "$pid" ]; then
	printf 'audio' > "${out}${pid}_Episode.m4a"
	exit 0
fi
if [ -n "$list" ]; then
	echo 'programmeoutput|b0abc123|The Archers|05/03/2024|News from Ambridge'
fi
exit 0
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithFeed("archers.toml", "The Archers", "archers", "The Archers"))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	binary := filepath.Join(base, "bin", "get_iplayer")
	testsupport.WriteScript(t, binary, stubGetIplayer)
	cfg.Fetch.Binary = binary
	cfg.Fetch.RefreshCache = false

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\noutput_dir = %q\nfeeds_dir = %q\nstaging_dir = %q\nlog_dir = %q\n\n"+
			"[fetch]\nbinary = %q\nrefresh_cache = %t\nsearch_timeout = 5\ndownload_timeout = 5\n\n"+
			"[server]\nbase_url = %q\n\n"+
			"[notifications]\nntfy_topic = %q\n",
		cfg.Paths.OutputDir,
		cfg.Paths.FeedsDir,
		cfg.Paths.StagingDir,
		cfg.Paths.LogDir,
		cfg.Fetch.Binary,
		cfg.Fetch.RefreshCache,
		cfg.Server.BaseURL,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
