// Package catalog holds the per-feed programme catalog and the reconciliation
// rules that keep it consistent across runs.
//
// A Catalog is append-only: searches may add programmes with unseen PIDs, and
// the downloader may flip a programme to downloaded exactly once. Identity and
// search-derived fields are never rewritten, PIDs stay unique, and a filename
// is recorded if and only if the programme has been downloaded. All access goes
// through copies so callers cannot bypass those rules.
package catalog
