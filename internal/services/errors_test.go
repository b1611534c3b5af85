package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"iplayercast/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "search", "list", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"search", "list", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	fatal := services.Wrap(services.ErrToolUnavailable, "download", "start", "", errors.New("exec: not found"))
	if !services.IsFatal(fatal) {
		t.Fatal("expected tool unavailable to be fatal")
	}
	if !services.IsFatal(fmt.Errorf("feed %q: %w", "radio", fatal)) {
		t.Fatal("expected wrapped tool unavailable to stay fatal")
	}
	for _, err := range []error{
		services.Wrap(services.ErrExternalTool, "search", "", "", nil),
		services.Wrap(services.ErrConfiguration, "feed", "", "", nil),
		services.Wrap(services.ErrHistorySave, "history", "", "", nil),
		nil,
	} {
		if services.IsFatal(err) {
			t.Fatalf("expected %v to be non-fatal", err)
		}
	}
}
