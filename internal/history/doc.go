// Package history persists each feed's programme catalog between runs.
//
// A feed's history is a small SQLite database (history.db) inside the feed
// directory with an explicit schema_version table. A missing file is a first
// run, while an unreadable file or unknown version yields an empty catalog and an
// error marked services.ErrHistoryLoad so callers can log it and carry on.
// Saves rebuild the database beside the live one and rename it into place so
// an interrupted run never leaves a half-written history.
package history
