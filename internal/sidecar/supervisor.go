package sidecar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"findmyjob/internal/health"
	"findmyjob/internal/logging"
	"findmyjob/internal/notify"
	"findmyjob/internal/portcheck"
)

// Outcome is the launch decision made by Start.
type Outcome string

const (
	OutcomeReusingExternal Outcome = "reusing_external"
	OutcomePortConflict    Outcome = "port_conflict"
	OutcomeLaunched        Outcome = "launched"
)

// State is the supervisor lifecycle position.
type State string

const (
	StateIdle            State = "idle"
	StateDeciding        State = "deciding"
	StateReusingExternal State = "reusing_external"
	StatePortConflict    State = "port_conflict"
	StateLaunching       State = "launching"
	StateRunning         State = "running"
	StateShuttingDown    State = "shutting_down"
	StateStopped         State = "stopped"
)

// Options wires a Supervisor. Zero values select the production collaborators.
type Options struct {
	// Executable is the backend reference handed to Launcher.
	Executable string
	Launcher   Launcher
	Prober     health.Prober
	Ports      portcheck.Checker
	Emitter    notify.Emitter
	Logger     *slog.Logger
	Observer   Observer
	Journal    Journal
	// LockPath is the owner lock taken while a launched backend is alive.
	// Empty disables locking.
	LockPath     string
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

// Supervisor reconciles an existing backend with launching one and owns the
// launched child until Shutdown.
type Supervisor struct {
	exe          string
	launcher     Launcher
	prober       health.Prober
	ports        portcheck.Checker
	emitter      notify.Emitter
	base         *slog.Logger
	logger       *slog.Logger
	observer     Observer
	journal      Journal
	lockPath     string
	pollInterval time.Duration
	readyTimeout time.Duration

	mu       sync.Mutex
	state    State
	outcome  Outcome
	started  bool
	shutdown bool
	child    Handle
	lock     *ownerLock
	cancel   context.CancelFunc

	tasks sync.WaitGroup
}

// New builds a supervisor from opts.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		exe:          opts.Executable,
		launcher:     opts.Launcher,
		prober:       opts.Prober,
		ports:        opts.Ports,
		emitter:      opts.Emitter,
		base:         opts.Logger,
		logger:       logging.NewComponentLogger(opts.Logger, "supervisor"),
		observer:     opts.Observer,
		journal:      opts.Journal,
		lockPath:     opts.LockPath,
		pollInterval: opts.PollInterval,
		readyTimeout: opts.ReadyTimeout,
		state:        StateIdle,
	}
	if s.launcher == nil {
		s.launcher = &ExecLauncher{}
	}
	if s.prober == nil {
		s.prober = health.NewHTTPProber(health.DefaultURL)
	}
	if s.ports == nil {
		s.ports = portcheck.Addr(portcheck.DefaultAddr)
	}
	if s.emitter == nil {
		s.emitter = notify.Discard
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.journal == nil {
		s.journal = nopJournal{}
	}
	if s.pollInterval <= 0 {
		s.pollInterval = health.PollInterval
	}
	if s.readyTimeout <= 0 {
		s.readyTimeout = health.ReadyTimeout
	}
	s.prober = countingProber{next: s.prober, observer: s.observer}
	s.observer.ObserveState(string(StateIdle))
	return s
}

// Start makes the launch decision and, when launching, starts the drain and
// readiness waiter in the background. Only a launch failure is returned as an
// error; port conflicts and later failures are reported as signals. When
// Shutdown wins the race against the decision, Start returns ErrStopped and
// leaves the state at stopped.
func (s *Supervisor) Start(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return "", ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if !s.advance(StateDeciding) {
		return "", ErrStopped
	}

	if s.prober.Probe(ctx) {
		s.logger.Info("backend already running, reusing",
			logging.String(logging.FieldEventType, "reuse_external"),
		)
		if !s.decide(StateReusingExternal, OutcomeReusingExternal, 0) {
			return OutcomeReusingExternal, ErrStopped
		}
		s.emit(notify.Ready())
		return OutcomeReusingExternal, nil
	}

	if !s.ports.IsFree() {
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "port_conflict"),
			logging.String(logging.FieldErrorHint, "close the application using port 8000 and restart"),
		}
		if held, err := OwnerLockHeld(s.lockPath); err == nil && held {
			attrs = append(attrs, logging.Bool("owned_by_other_instance", true))
		}
		logging.ErrorWithContext(s.logger, "port 8000 is in use by another application", "port_conflict", attrs...)
		if !s.decide(StatePortConflict, OutcomePortConflict, 0) {
			return OutcomePortConflict, ErrStopped
		}
		s.emit(notify.Error(PortConflictMessage))
		return OutcomePortConflict, nil
	}

	if !s.advance(StateLaunching) {
		return "", ErrStopped
	}
	s.logger.Info("starting backend sidecar", logging.String("executable", s.exe))

	events, child, err := s.launcher.Launch(ctx, s.exe)
	if err != nil {
		s.observer.ObserveLaunch(false)
		var launchErr *LaunchError
		if !errors.As(err, &launchErr) {
			err = &LaunchError{Executable: s.exe, Err: err}
		}
		logging.ErrorWithContext(s.logger, "failed to spawn backend", "launch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check backend.executable in config"),
		)
		s.record(func(ctx context.Context) error { return s.journal.RecordError(ctx, err.Error()) })
		s.setState(StateStopped)
		return "", err
	}
	s.observer.ObserveLaunch(true)

	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		cancel()
		if killErr := child.Kill(); killErr != nil {
			s.logger.Warn("kill after late launch failed", logging.Error(killErr))
		}
		go drainQuietly(events)
		return OutcomeLaunched, ErrStopped
	}
	s.child = child
	s.cancel = cancel
	s.outcome = OutcomeLaunched
	s.mu.Unlock()

	s.acquireLock()
	s.advance(StateRunning)
	s.logger.Info("backend sidecar started", logging.Int(logging.FieldPID, child.PID()))
	s.record(func(ctx context.Context) error {
		return s.journal.SetOutcome(ctx, string(OutcomeLaunched), child.PID())
	})

	s.tasks.Add(2)
	go s.runDrain(events)
	go s.runWaiter(bg)

	return OutcomeLaunched, nil
}

func (s *Supervisor) runDrain(events <-chan Event) {
	defer s.tasks.Done()
	drain := &Drain{
		Emitter:  notify.EmitterFunc(func(sig notify.Signal) { s.emit(sig) }),
		Logger:   s.base,
		Observer: s.observer,
	}
	drain.Run(events)
}

func (s *Supervisor) runWaiter(ctx context.Context) {
	defer s.tasks.Done()
	s.logger.Info("waiting for backend to start",
		logging.Duration("timeout", s.readyTimeout),
		logging.Duration("interval", s.pollInterval),
	)

	start := time.Now()
	if health.WaitReady(ctx, s.prober, s.pollInterval, s.readyTimeout) {
		elapsed := time.Since(start)
		s.observer.ObserveReadiness(elapsed)
		s.logger.Info(fmt.Sprintf("backend ready in %.1fs", elapsed.Seconds()),
			logging.String(logging.FieldEventType, "backend_ready"),
			logging.Duration("elapsed", elapsed),
		)
		s.record(s.journal.MarkReady)
		s.emit(notify.Ready())
		return
	}
	if ctx.Err() != nil {
		return
	}
	logging.ErrorWithContext(s.logger, "backend did not become healthy in time", "readiness_timeout",
		logging.Duration("timeout", s.readyTimeout),
		logging.String(logging.FieldErrorHint, "backend is left running; check its output"),
	)
	s.emit(notify.Error(ReadinessTimeoutMessage(s.readyTimeout)))
}

// Shutdown kills the launched backend if this run owns one and moves to
// Stopped. Calls after the first are no-ops.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	s.started = true
	s.mu.Unlock()

	s.setState(StateShuttingDown)
	s.logger.Info("shutting down backend")

	killed, err := s.TakeAndKill()
	var result string
	switch {
	case !killed:
		result = "none"
		s.logger.Info("no sidecar to kill (was using external backend)")
	case err != nil:
		result = "failed: " + err.Error()
		logging.WarnWithContext(s.logger, "failed to kill backend", "shutdown_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "backend may still be running"),
			logging.String(logging.FieldErrorHint, "the process may already have exited"),
		)
	default:
		result = "killed"
		s.logger.Info("backend process killed")
	}

	s.mu.Lock()
	lock, cancel := s.lock, s.cancel
	s.lock, s.cancel = nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if err := lock.release(); err != nil {
		s.logger.Warn("failed to release owner lock", logging.Error(err))
	}

	s.record(func(ctx context.Context) error { return s.journal.MarkStopped(ctx, result) })
	s.setState(StateStopped)
}

// TakeAndKill removes the child handle and kills it while holding the
// supervisor lock. It reports whether a handle was present.
func (s *Supervisor) TakeAndKill() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	child := s.child
	s.child = nil
	if child == nil {
		return false, nil
	}
	return true, child.Kill()
}

// Wait blocks until the drain and readiness waiter have returned.
func (s *Supervisor) Wait() {
	s.tasks.Wait()
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the launch decision, empty before Start decides.
func (s *Supervisor) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// HasChild reports whether the supervisor currently owns a child handle.
func (s *Supervisor) HasChild() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.child != nil
}

// decide records a launch decision. It refuses once Shutdown has begun so a
// slow probe cannot move a stopped supervisor back to a decision state.
func (s *Supervisor) decide(state State, outcome Outcome, pid int) bool {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		s.logger.Debug("decision discarded after shutdown", logging.String("outcome", string(outcome)))
		return false
	}
	s.outcome = outcome
	prev := s.state
	s.state = state
	s.mu.Unlock()
	s.stateChanged(prev, state)
	s.record(func(ctx context.Context) error { return s.journal.SetOutcome(ctx, string(outcome), pid) })
	return true
}

// advance moves to state unless Shutdown has begun and reports whether it did.
func (s *Supervisor) advance(state State) bool {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state = state
	s.mu.Unlock()
	s.stateChanged(prev, state)
	return true
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()
	s.stateChanged(prev, state)
}

func (s *Supervisor) stateChanged(prev, state State) {
	if prev == state {
		return
	}
	s.observer.ObserveState(string(state))
	s.logger.Debug("supervisor state changed",
		logging.String("from", string(prev)),
		logging.String(logging.FieldState, string(state)),
	)
}

// emit forwards a signal unless shutdown has begun; a child killed on purpose
// must not be reported as a crash.
func (s *Supervisor) emit(sig notify.Signal) {
	s.mu.Lock()
	stopping := s.shutdown
	s.mu.Unlock()
	if stopping {
		s.logger.Debug("signal suppressed during shutdown", logging.String("signal", sig.Name))
		return
	}
	s.observer.ObserveSignal(sig.Name)
	if sig.IsError() {
		s.record(func(ctx context.Context) error { return s.journal.RecordError(ctx, sig.Message) })
	}
	s.emitter.Emit(sig)
}

func (s *Supervisor) acquireLock() {
	lock, err := acquireOwnerLock(s.lockPath)
	if err != nil {
		logging.WarnWithContext(s.logger, "owner lock unavailable", "owner_lock",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status cannot attribute the backend to this run"),
			logging.String(logging.FieldErrorHint, "another FindMyJob shell may be running"),
		)
		return
	}
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		if err := lock.release(); err != nil {
			s.logger.Warn("failed to release owner lock", logging.Error(err))
		}
		return
	}
	s.lock = lock
	s.mu.Unlock()
}

func (s *Supervisor) record(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logging.WarnWithContext(s.logger, "run journal write failed", "journal_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history will be incomplete"),
		)
	}
}

func drainQuietly(events <-chan Event) {
	for range events {
	}
}

type countingProber struct {
	next     health.Prober
	observer Observer
}

func (p countingProber) Probe(ctx context.Context) bool {
	ok := p.next.Probe(ctx)
	p.observer.ObserveProbe(ok)
	return ok
}
