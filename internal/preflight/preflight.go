package preflight

import (
	"context"
	"path/filepath"

	"cloudronwatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg. The API check is skipped
// when api is nil.
func RunAll(ctx context.Context, cfg *config.Config, api NotificationLister) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if lockDir := filepath.Dir(cfg.Paths.LockFile); lockDir != cfg.Paths.StateDir {
		results = append(results, CheckDirectoryAccess("Lock directory", lockDir))
	}
	results = append(results, CheckLock(cfg.Paths.LockFile))

	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.History.Path)))
	}

	results = append(results, CheckDelivery(cfg)...)

	if api != nil {
		results = append(results, CheckCloudron(ctx, api))
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
