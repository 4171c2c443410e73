package notify

import "sync"

// Status is what a consumer shows for the backend.
type Status string

const (
	StatusConnecting       Status = "connecting"
	StatusConnected        Status = "connected"
	StatusError            Status = "error"
	StatusFailedAfterReady Status = "failed_after_ready"
)

// Tracker folds signals into a consumer status. An error that follows a ready
// signal means the backend died after startup and the state sticks.
type Tracker struct {
	mu      sync.Mutex
	status  Status
	message string
}

func NewTracker() *Tracker {
	return &Tracker{status: StatusConnecting}
}

// Emit lets a Tracker sit in a Fanout.
func (t *Tracker) Emit(s Signal) { t.Observe(s) }

// Observe applies s and returns the resulting status.
func (t *Tracker) Observe(s Signal) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.status == StatusFailedAfterReady:
	case s.Name == NameReady:
		t.status = StatusConnected
		t.message = ""
	case s.IsError() && t.status == StatusConnected:
		t.status = StatusFailedAfterReady
		t.message = s.Message
	case s.IsError():
		t.status = StatusError
		t.message = s.Message
	}
	return t.status
}

// Status returns the current status and the last error message, if any.
func (t *Tracker) Status() (Status, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.message
}
