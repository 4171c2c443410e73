package sidecar

import (
	"fmt"
	"time"
)

// User-facing backend-error payloads.
const (
	PortConflictMessage   = "Port 8000 is already in use by another application. Please close it and restart FindMyJobAI."
	UnexpectedStopMessage = "Backend stopped unexpectedly. Please restart FindMyJobAI."
)

// StreamErrorMessage wraps an error reported on the child's event stream.
func StreamErrorMessage(detail string) string {
	return "Backend error: " + detail
}

// ReadinessTimeoutMessage reports that the backend never became healthy.
func ReadinessTimeoutMessage(timeout time.Duration) string {
	return fmt.Sprintf("Backend failed to start within %d seconds. Please restart FindMyJobAI.", int(timeout.Round(time.Second)/time.Second))
}
