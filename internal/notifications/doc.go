// Package notifications delivers run events to ntfy.
//
// NewService returns an ntfy-backed Service when notifications.ntfy_topic is
// set and a no-op otherwise, so the workflow can notify unconditionally.
// Events cover newly downloaded programmes, feed failures and the end of a
// run.
package notifications
