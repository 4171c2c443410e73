package health

import (
	"context"
	"time"
)

const (
	// PollInterval is the cadence between readiness probes.
	PollInterval = 500 * time.Millisecond
	// ReadyTimeout is how long WaitReady keeps polling by default.
	ReadyTimeout = 45 * time.Second
)

// WaitReady probes until prober succeeds or timeout elapses, sleeping interval
// between attempts. The first probe happens immediately. It returns false early
// when ctx is cancelled.
func WaitReady(ctx context.Context, prober Prober, interval, timeout time.Duration) bool {
	if prober == nil {
		return false
	}
	if interval <= 0 {
		interval = PollInterval
	}
	if timeout <= 0 {
		timeout = ReadyTimeout
	}

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if prober.Probe(ctx) {
			return true
		}
		if time.Since(start) >= timeout {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
