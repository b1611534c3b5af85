// Package workflow drives a complete iplayercast run.
//
// A Runner takes the run lock under the output directory, verifies the fetch
// tool, optionally refreshes the tool's programme cache, and then processes
// each configured feed in turn: load history, search every term, merge new
// programmes, download everything pending, save history, and re-render
// feed.xml. Problems scoped to one feed are logged and the run moves on to the
// next; only an unusable tool, a held lock, or cancellation end the run early.
//
// The same Runner backs the "list" and "render" commands through
// LoadCatalog and RenderFeed, which reuse history and rendering without
// touching the network.
package workflow
