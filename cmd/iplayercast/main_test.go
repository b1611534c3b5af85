package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIRunListAndRender(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run returned error: %v (stderr %s)", err, stderr)
	}
	if !strings.Contains(out, "The Archers") {
		t.Fatalf("expected feed row in summary, got %q", out)
	}
	if !strings.Contains(stderr, "personal use") {
		t.Fatalf("expected copyright notice on stderr, got %q", stderr)
	}

	media := filepath.Join(env.cfg.Paths.OutputDir, "archers", "b0abc123_Episode.m4a")
	if _, err := os.Stat(media); err != nil {
		t.Fatalf("expected downloaded file: %v", err)
	}

	out, _, err = runCLI(t, []string{"list", "--feed", "The Archers"}, env.configPath)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	for _, want := range []string{"b0abc123", "05/03/2024 - The Archers", "yes", "5 B", "1 downloaded, 0 pending"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	feedPath := filepath.Join(env.cfg.Paths.OutputDir, "archers", "feed.xml")
	if err := os.Remove(feedPath); err != nil {
		t.Fatalf("remove feed: %v", err)
	}
	out, _, err = runCLI(t, []string{"render", "--feed", "archers"}, env.configPath)
	if err != nil {
		t.Fatalf("render returned error: %v", err)
	}
	if !strings.Contains(out, feedPath) {
		t.Fatalf("expected render to report %s, got %q", feedPath, out)
	}
	data, err := os.ReadFile(feedPath)
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if !strings.Contains(string(data), "http://media.test/podcasts/archers/b0abc123_Episode.m4a") {
		t.Fatalf("expected enclosure url in feed, got %s", data)
	}
}

func TestCLIListRequiresFeed(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"list"}, env.configPath); err == nil {
		t.Fatal("expected error without --feed")
	}
}

func TestCLIUnknownFeedFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run", "--feed", "nope"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown feed")
	}
}

func TestCLIListEmptyHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"list", "--feed", "The Archers"}, env.configPath)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if !strings.Contains(out, "No programmes recorded") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCLICheckReportsTools(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "get_iplayer") || !strings.Contains(out, "[OK]") {
		t.Fatalf("expected get_iplayer status, got %q", out)
	}
}

func TestCLICheckFailsWithoutFetchTool(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Fetch.Binary = filepath.Join(t.TempDir(), "missing-get_iplayer")
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatalf("expected check failure, got output %q", out)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Fatalf("expected error status line, got %q", out)
	}
}

func TestCLICheckSendsTestNotification(t *testing.T) {
	env := setupCLITestEnv(t)
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env.cfg.Notifications.NtfyTopic = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"check", "--notify"}, env.configPath)
	if err != nil {
		t.Fatalf("check returned error: %v\n%s", err, out)
	}
	if len(titles) != 1 || titles[0] != "iplayercast - Test" {
		t.Fatalf("expected one test notification, got %v", titles)
	}
	if !strings.Contains(out, "test sent to "+server.URL) {
		t.Fatalf("expected notification status line, got %q", out)
	}
}

func TestCLILogsShowsRunLog(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	out, _, err := runCLI(t, []string{"logs", "-n", "200"}, env.configPath)
	if err != nil {
		t.Fatalf("logs returned error: %v", err)
	}
	if !strings.Contains(out, "run complete") {
		t.Fatalf("expected run log lines, got %q", out)
	}
}
