package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"iplayercast/internal/config"
	"iplayercast/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckFreeSpace("Free space", cfg.Paths.OutputDir, minFreeBytes))
	results = append(results, CheckDirectoryAccess("Staging parent", filepath.Dir(cfg.Paths.StagingDir)))
	results = append(results, CheckFeedsDir(cfg.Paths.FeedsDir))
	for _, status := range deps.CheckBinaries(deps.FetchRequirements(cfg)) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the mandatory checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckFeedsDir reports how many feed definitions are present. A missing
// directory is a warning rather than a failure; runs simply have nothing to do.
func CheckFeedsDir(path string) Result {
	const name = "Feeds directory"
	entries, err := os.ReadDir(path)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".toml" {
			count++
		}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (%d feed files)", path, count)}
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case status.Available:
		result.Detail = status.Path
	case status.Optional:
		result.Detail = status.Detail + " (optional: " + status.Description + ")"
	default:
		result.Detail = status.Detail
	}
	return result
}
