package sidecar

import (
	"fmt"
	"os"
)

// EventKind identifies a process event.
type EventKind int

const (
	EventStdout EventKind = iota + 1
	EventStderr
	EventError
	EventTerminated
)

func (k EventKind) String() string {
	switch k {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventError:
		return "error"
	case EventTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one item from a launched child's event stream. Data is set for
// output events, Message for errors, and Status for termination.
type Event struct {
	Kind    EventKind
	Data    []byte
	Message string
	Status  ExitStatus
}

// ExitStatus describes how the child ended. Code is -1 when the process was
// killed by a signal or the status is unknown.
type ExitStatus struct {
	Code        int
	Description string
}

func exitStatusOf(state *os.ProcessState, waitErr error) ExitStatus {
	if state == nil {
		desc := "unknown"
		if waitErr != nil {
			desc = waitErr.Error()
		}
		return ExitStatus{Code: -1, Description: desc}
	}
	return ExitStatus{Code: state.ExitCode(), Description: state.String()}
}

func (s ExitStatus) String() string {
	if s.Description != "" {
		return s.Description
	}
	return fmt.Sprintf("exit status %d", s.Code)
}
