package preflight

import (
	"context"
	"fmt"

	"goggles/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the checks RunAll performs.
type Options struct {
	// PrimaryDatabase adds a live connection attempt to the primary datastore.
	PrimaryDatabase bool
}

// RunAll executes the local readiness checks, plus the primary datastore when
// requested. Required binaries that are missing count as failures; optional
// ones pass with a note.
func RunAll(ctx context.Context, cfg *config.Config, checker HealthChecker, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional}
		switch {
		case status.Available:
			result.Detail = status.Command
			if status.Detail != "" {
				result.Detail = status.Detail
			}
		case status.Optional:
			result.Detail = fmt.Sprintf("%s (optional: %s)", status.Command, status.Detail)
		default:
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	if checker != nil {
		results = append(results, CheckQueueDatabase(ctx, checker))
	}
	if opts.PrimaryDatabase {
		results = append(results, CheckPrimaryDatabase(ctx, cfg))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
