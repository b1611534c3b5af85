// Package services defines shared utilities consumed by the feed workflow and
// the external fetch tool integration.
//
// Key responsibilities:
//   - Context helpers that stamp feed names, stage names, programme PIDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the workflow
//     decide whether a failure skips a feed or stops the whole run.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the run.
package services
