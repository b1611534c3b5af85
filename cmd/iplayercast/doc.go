// Package main hosts the iplayercast CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the structured
// logger, and hands off to the workflow runner for "run", "list" and
// "render". "check" reports tool and directory readiness, "logs" tails the
// run log and "config" scaffolds or validates the configuration file.
package main
