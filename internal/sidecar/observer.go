package sidecar

import (
	"context"
	"time"
)

// Observer receives supervision measurements. internal/metrics implements it.
type Observer interface {
	ObserveProbe(ok bool)
	ObserveSignal(name string)
	ObserveLine(stream string)
	ObserveState(state string)
	ObserveReadiness(d time.Duration)
	ObserveLaunch(ok bool)
}

type nopObserver struct{}

func (nopObserver) ObserveProbe(bool)              {}
func (nopObserver) ObserveSignal(string)           {}
func (nopObserver) ObserveLine(string)             {}
func (nopObserver) ObserveState(string)            {}
func (nopObserver) ObserveReadiness(time.Duration) {}
func (nopObserver) ObserveLaunch(bool)             {}

// Journal persists the lifecycle of the current run. internal/runlog
// implements it.
type Journal interface {
	SetOutcome(ctx context.Context, outcome string, pid int) error
	MarkReady(ctx context.Context) error
	RecordError(ctx context.Context, message string) error
	MarkStopped(ctx context.Context, killResult string) error
}

type nopJournal struct{}

func (nopJournal) SetOutcome(context.Context, string, int) error { return nil }
func (nopJournal) MarkReady(context.Context) error               { return nil }
func (nopJournal) RecordError(context.Context, string) error     { return nil }
func (nopJournal) MarkStopped(context.Context, string) error     { return nil }
