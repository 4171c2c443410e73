package preflight

import (
	"context"

	"findmyjob/internal/config"
	"findmyjob/internal/health"
	"findmyjob/internal/portcheck"
	"findmyjob/internal/runlog"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Deps overrides the collaborators RunAll talks to. Nil fields select the
// production defaults.
type Deps struct {
	Prober health.Prober
	Ports  portcheck.Checker
	// History is consulted for the last run when non-nil.
	History *runlog.Store
	// BaseDir anchors relative backend executable references.
	BaseDir string
}

// RunAll executes every status check for cfg in display order.
func RunAll(ctx context.Context, cfg *config.Config, deps Deps) []Result {
	if cfg == nil {
		return nil
	}
	if deps.Prober == nil {
		deps.Prober = health.NewHTTPProber(health.DefaultURL)
	}
	if deps.Ports == nil {
		deps.Ports = portcheck.Addr(portcheck.DefaultAddr)
	}

	healthResult := CheckHealth(ctx, deps.Prober)
	results := []Result{
		healthResult,
		CheckPort(deps.Ports, healthResult.Passed),
		CheckExecutable(cfg.Backend.Executable, deps.BaseDir),
		CheckOwnerLock(cfg.OwnerLockPath()),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	if cfg.History.Enabled {
		results = append(results, CheckLastRun(ctx, deps.History))
	}
	return results
}
