package testsupport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"findmyjob/internal/sidecar"
)

// FakeHandle is a sidecar.Handle that counts kills.
type FakeHandle struct {
	Pid     int
	KillErr error
	kills   atomic.Int32
}

func (h *FakeHandle) PID() int { return h.Pid }

func (h *FakeHandle) Kill() error {
	h.kills.Add(1)
	return h.KillErr
}

// Kills returns how many times Kill was called.
func (h *FakeHandle) Kills() int { return int(h.kills.Load()) }

// SpyLauncher records launch calls and hands out a scripted stream.
type SpyLauncher struct {
	// Events is returned as the child's event stream. When nil a fresh open
	// channel is created and exposed through Stream.
	Events chan sidecar.Event
	Handle *FakeHandle
	Err    error

	mu    sync.Mutex
	calls []string
}

func (l *SpyLauncher) Launch(_ context.Context, executable string) (<-chan sidecar.Event, sidecar.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, executable)
	if l.Err != nil {
		return nil, nil, l.Err
	}
	if l.Events == nil {
		l.Events = make(chan sidecar.Event, 16)
	}
	if l.Handle == nil {
		l.Handle = &FakeHandle{Pid: 4242}
	}
	return l.Events, l.Handle, nil
}

// Calls returns the executables passed to Launch.
func (l *SpyLauncher) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Stream returns the event channel handed to the supervisor.
func (l *SpyLauncher) Stream() chan sidecar.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Events
}

// ErrSpawnRefused is a canned launch failure.
var ErrSpawnRefused = errors.New("spawn refused")

// SequenceProber answers probes from a script; the last answer repeats.
type SequenceProber struct {
	Answers []bool
	calls   atomic.Int32
}

func (p *SequenceProber) Probe(context.Context) bool {
	n := int(p.calls.Add(1)) - 1
	if len(p.Answers) == 0 {
		return false
	}
	if n >= len(p.Answers) {
		n = len(p.Answers) - 1
	}
	return p.Answers[n]
}

// Calls returns how many probes were issued.
func (p *SequenceProber) Calls() int { return int(p.calls.Load()) }

// HealthyAfter returns a prober that turns healthy on probe n (1-based).
func HealthyAfter(n int) *SequenceProber {
	answers := make([]bool, n)
	answers[n-1] = true
	return &SequenceProber{Answers: answers}
}
