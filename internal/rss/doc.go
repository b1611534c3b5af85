// Package rss renders a feed catalog as an RSS 2.0 document.
//
// Items follow catalog order. Downloaded programmes carry an enclosure whose
// URL is the configured server base joined with the feed's output path and
// media filename; the enclosure type is the filename extension as-is.
package rss
