// Package getiplayer mediates access to the get_iplayer CLI.
//
// It builds the listing, fetch, and cache refresh invocations, parses the
// pipe-delimited listing output into catalog programmes, and classifies tool
// failures into the services error markers so callers can tell a broken feed
// from an unusable tool.
//
// Tests inject an Executor through WithExecutor instead of spawning the real
// binary.
package getiplayer
