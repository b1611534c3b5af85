// Package preflight provides readiness checks for the filesystem paths and
// external tools iplayercast depends on.
//
// The run driver uses RunAll to refuse to start when the output tree cannot be
// written, and the CLI "check" command renders the same results as a table.
package preflight
