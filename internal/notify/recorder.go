package notify

import (
	"sync"
	"time"
)

// Recorder keeps every emitted signal in order.
type Recorder struct {
	mu      sync.Mutex
	signals []Signal
	changed chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{changed: make(chan struct{})}
}

func (r *Recorder) Emit(s Signal) {
	r.mu.Lock()
	r.signals = append(r.signals, s)
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()
}

// Signals returns a copy of everything recorded so far.
func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.signals...)
}

// Count returns how many signals named name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.signals {
		if s.Name == name {
			n++
		}
	}
	return n
}

// Errors returns the messages of recorded backend-error signals.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.signals {
		if s.IsError() {
			out = append(out, s.Message)
		}
	}
	return out
}

// WaitFor blocks until at least n signals named name were recorded or timeout
// passes. It reports whether the count was reached.
func (r *Recorder) WaitFor(name string, n int, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		r.mu.Lock()
		count := 0
		for _, s := range r.signals {
			if s.Name == name {
				count++
			}
		}
		changed := r.changed
		r.mu.Unlock()
		if count >= n {
			return true
		}
		select {
		case <-changed:
		case <-timer.C:
			return false
		}
	}
}
