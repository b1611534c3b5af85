// Package logging assembles structured slog loggers and formatting helpers used
// across iplayercast.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so workflow code can tag log
// lines with the run identifier, feed name, stage, and programme PID. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
