package sidecar

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by a second Start on the same supervisor.
	ErrAlreadyStarted = errors.New("supervisor already started")
	// ErrStopped is returned when Shutdown won the race against a launch.
	ErrStopped = errors.New("supervisor stopped")
	// ErrExecutableNotFound means the backend executable could not be resolved.
	ErrExecutableNotFound = errors.New("backend executable not found")
)

// LaunchError reports that the backend could not be started. It is fatal for
// the run.
type LaunchError struct {
	Executable string
	Err        error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch backend %q: %v", e.Executable, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
