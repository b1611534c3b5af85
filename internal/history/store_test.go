package history_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"iplayercast/internal/catalog"
	"iplayercast/internal/history"
	"iplayercast/internal/logging"
	"iplayercast/internal/services"
)

var seen = time.Date(2024, time.March, 5, 18, 30, 0, 0, time.UTC)

func newStore() *history.Store {
	return history.New(logging.NewNop())
}

func TestLoadMissingHistoryReturnsEmptyCatalog(t *testing.T) {
	cat, err := newStore().Load(context.Background(), filepath.Join(t.TempDir(), "feed"))
	if err != nil {
		t.Fatalf("expected no error for absent history, got %v", err)
	}
	if cat == nil || cat.Len() != 0 {
		t.Fatalf("expected empty catalog, got %+v", cat)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	feedDir := filepath.Join(t.TempDir(), "feeds", "archers")
	store := newStore()

	cat := catalog.New()
	cat.Merge([]catalog.Programme{
		{PID: "p1", Name: "Show", Episode: "E1", Description: "first | with pipe", FirstSeen: seen},
		{PID: "p2", Name: "Show", Episode: "E2", Description: "", FirstSeen: seen.Add(time.Hour)},
		{PID: "p0", Name: "Other", Episode: "Pilot", Description: "d", FirstSeen: seen.Add(2 * time.Hour)},
	})
	if err := cat.MarkDownloaded("p2", "p2.m4a"); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}

	if err := store.Save(ctx, feedDir, "Archers", cat); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(feedDir, history.FileName+".tmp")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file removed, got err=%v", err)
	}

	loaded, err := store.Load(ctx, feedDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := cat.Programmes()
	got := loaded.Programmes()
	if len(got) != len(want) {
		t.Fatalf("expected %d programmes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].PID != want[i].PID || got[i].Name != want[i].Name || got[i].Episode != want[i].Episode ||
			got[i].Description != want[i].Description || got[i].Downloaded != want[i].Downloaded ||
			got[i].Filename != want[i].Filename || !got[i].FirstSeen.Equal(want[i].FirstSeen) {
			t.Fatalf("programme %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestSaveReplacesPreviousHistory(t *testing.T) {
	ctx := context.Background()
	feedDir := t.TempDir()
	store := newStore()

	cat := catalog.New()
	cat.Merge([]catalog.Programme{{PID: "p1", Name: "Show", Episode: "E1", FirstSeen: seen}})
	if err := store.Save(ctx, feedDir, "feed", cat); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	cat.Merge([]catalog.Programme{{PID: "p2", Name: "Show", Episode: "E2", FirstSeen: seen}})
	if err := cat.MarkDownloaded("p1", "p1.mp3"); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}
	if err := store.Save(ctx, feedDir, "feed", cat); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	loaded, err := store.Load(ctx, feedDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 programmes, got %d", loaded.Len())
	}
	p1, _ := loaded.Get("p1")
	if !p1.Downloaded || p1.Filename != "p1.mp3" {
		t.Fatalf("expected p1 downloaded after resave, got %+v", p1)
	}
}

func TestLoadCorruptHistory(t *testing.T) {
	feedDir := t.TempDir()
	if err := os.WriteFile(history.Path(feedDir), []byte("this is not a database, just some pickled bytes"), 0o644); err != nil {
		t.Fatalf("write corrupt history: %v", err)
	}
	cat, err := newStore().Load(context.Background(), feedDir)
	if !errors.Is(err, services.ErrHistoryLoad) {
		t.Fatalf("expected history load error, got %v", err)
	}
	if cat == nil || cat.Len() != 0 {
		t.Fatalf("expected empty catalog alongside error, got %+v", cat)
	}
}

func TestLoadRejectsUnknownSchemaVersion(t *testing.T) {
	ctx := context.Background()
	feedDir := t.TempDir()
	cat := catalog.New()
	cat.Merge([]catalog.Programme{{PID: "p1", Name: "Show", Episode: "E1", FirstSeen: seen}})
	if err := newStore().Save(ctx, feedDir, "feed", cat); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	db, err := sql.Open("sqlite", history.Path(feedDir))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	loaded, err := newStore().Load(ctx, feedDir)
	if !errors.Is(err, services.ErrHistoryLoad) || !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch history error, got %v", err)
	}
	if loaded.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d programmes", loaded.Len())
	}
}

func TestSaveFailureIsMarked(t *testing.T) {
	feedDir := t.TempDir()
	if err := os.Mkdir(history.Path(feedDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(history.Path(feedDir), "keep"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat := catalog.New()
	err := newStore().Save(context.Background(), feedDir, "feed", cat)
	if !errors.Is(err, services.ErrHistorySave) {
		t.Fatalf("expected history save error, got %v", err)
	}
}
