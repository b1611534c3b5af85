package getiplayer

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"iplayercast/internal/catalog"
)

const (
	listMarker = "programmeoutput"
	listFormat = listMarker + "|<pid>|<name>|<episode>|<desc>"
)

// parseListing extracts programmes from listing output. Lines without the
// marker are tool chatter. The description is the final field and may itself
// contain the delimiter.
func parseListing(lines []string, now time.Time) []catalog.Programme {
	var out []catalog.Programme
	for _, line := range lines {
		p, ok := parseLine(line)
		if !ok {
			continue
		}
		p.FirstSeen = now
		out = append(out, p)
	}
	return out
}

func parseLine(line string) (catalog.Programme, bool) {
	fields := strings.SplitN(strings.TrimRight(line, "\r\n"), "|", 5)
	if len(fields) < 5 {
		return catalog.Programme{}, false
	}
	if strings.TrimSpace(fields[0]) != listMarker {
		return catalog.Programme{}, false
	}
	pid := clean(fields[1])
	if pid == "" {
		return catalog.Programme{}, false
	}
	return catalog.Programme{
		PID:         pid,
		Name:        clean(fields[2]),
		Episode:     clean(fields[3]),
		Description: clean(fields[4]),
	}, true
}

func clean(field string) string {
	return strings.TrimSpace(norm.NFC.String(field))
}

// recognisedOutput reports whether lines look like listing output, either
// programme rows or the tool's match summary.
func recognisedOutput(lines []string) bool {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Matches:") {
			return true
		}
		marker, _, found := strings.Cut(trimmed, "|")
		if found && strings.TrimSpace(marker) == listMarker {
			return true
		}
	}
	return false
}
