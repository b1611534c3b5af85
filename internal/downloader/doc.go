// Package downloader fetches pending programmes for a feed.
//
// Programmes are processed one at a time through a single staging directory
// that is reset before and removed after every fetch. Whatever the fetch tool
// leaves in staging is relocated into the feed directory and the programme is
// marked downloaded; a fetch that produces nothing leaves the programme
// pending for the next run. Only an unusable tool or a cancelled context stops
// the loop early.
package downloader
