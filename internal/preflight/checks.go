package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"findmyjob/internal/health"
	"findmyjob/internal/portcheck"
	"findmyjob/internal/runlog"
	"findmyjob/internal/sidecar"
)

// CheckHealth issues a single health probe.
func CheckHealth(ctx context.Context, prober health.Prober) Result {
	const name = "Backend"
	if prober == nil {
		return Result{Name: name, Detail: "no prober configured"}
	}
	if prober.Probe(ctx) {
		return Result{Name: name, Passed: true, Detail: "healthy at " + health.DefaultURL}
	}
	return Result{Name: name, Detail: "not responding at " + health.DefaultURL}
}

// CheckPort reports whether the backend port can be bound. An occupied port
// passes when a healthy backend is the occupant.
func CheckPort(ports portcheck.Checker, backendHealthy bool) Result {
	const name = "Port 8000"
	switch {
	case ports.IsFree():
		return Result{Name: name, Passed: true, Detail: "free"}
	case backendHealthy:
		return Result{Name: name, Passed: true, Detail: "in use by a healthy backend"}
	default:
		return Result{Name: name, Detail: "in use by another application"}
	}
}

// CheckExecutable verifies the backend reference resolves to an executable file.
func CheckExecutable(ref, baseDir string) Result {
	const name = "Backend executable"
	launcher := &sidecar.ExecLauncher{BaseDir: baseDir}
	path, err := launcher.Resolve(ref)
	if err != nil {
		if errors.Is(err, sidecar.ErrExecutableNotFound) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (not found)", strings.TrimSpace(ref))}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (not executable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckOwnerLock reports whether another shell currently owns a launched
// backend. Both held and free are healthy states.
func CheckOwnerLock(path string) Result {
	const name = "Owner lock"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	held, err := sidecar.OwnerLockHeld(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if held {
		return Result{Name: name, Passed: true, Detail: "held by a running shell"}
	}
	return Result{Name: name, Passed: true, Detail: "free"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLastRun summarizes the most recent journal entry.
func CheckLastRun(ctx context.Context, store *runlog.Store) Result {
	const name = "Last run"
	if store == nil {
		return Result{Name: name, Passed: true, Detail: "history unavailable"}
	}
	runs, err := store.Recent(ctx, 1)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("read history: %v", err)}
	}
	if len(runs) == 0 {
		return Result{Name: name, Passed: true, Detail: "no runs recorded"}
	}
	return summarizeRun(runs[0])
}

func summarizeRun(run runlog.Run) Result {
	const name = "Last run"
	outcome := run.Outcome
	if outcome == "" {
		outcome = "undecided"
	}
	parts := []string{outcome, "started " + run.StartedAt.Local().Format(time.DateTime)}
	if ready := run.ReadyAfter(); ready > 0 {
		parts = append(parts, fmt.Sprintf("ready after %.1fs", ready.Seconds()))
	}
	if run.FirstError != "" {
		parts = append(parts, fmt.Sprintf("%d error(s), first: %s", run.ErrorCount, run.FirstError))
		return Result{Name: name, Detail: strings.Join(parts, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(parts, ", ")}
}
