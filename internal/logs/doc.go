// Package logs reads the iplayercast run log for the "logs" command.
//
// Last returns the trailing lines of the file with bounded memory and Follow
// polls for appended lines until the context ends.
package logs
