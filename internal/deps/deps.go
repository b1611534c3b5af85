package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"iplayercast/internal/config"
)

// Requirement defines an external dependency iplayercast relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// FetchRequirements lists the binaries used while fetching programmes.
// get_iplayer is mandatory; its helpers only degrade output when absent.
func FetchRequirements(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{
			Name:        "get_iplayer",
			Command:     cfg.Fetch.Binary,
			Description: "Required for listing and downloading programmes",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Used by get_iplayer to remux downloads",
			Optional:    true,
		},
	}
	if !cfg.Fetch.NoFileTagging {
		requirements = append(requirements, Requirement{
			Name:        "AtomicParsley",
			Command:     "AtomicParsley",
			Description: "Used by get_iplayer to tag MP4/M4A files",
			Optional:    true,
		})
	}
	return requirements
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the mandatory dependencies that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status)
		}
	}
	return missing
}
