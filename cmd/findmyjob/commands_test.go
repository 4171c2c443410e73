package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"findmyjob/internal/health"
	"findmyjob/internal/notify"
	"findmyjob/internal/portcheck"
	"findmyjob/internal/preflight"
	"findmyjob/internal/sidecar"
	"findmyjob/internal/testsupport"
)

var (
	healthyProber   = health.ProberFunc(func(context.Context) bool { return true })
	unhealthyProber = health.ProberFunc(func(context.Context) bool { return false })
	portFree        = portcheck.CheckerFunc(func() bool { return true })
	portBusy        = portcheck.CheckerFunc(func() bool { return false })
)

// closingHandle closes the event stream on kill, like a real child whose
// pipes close when it dies.
type closingHandle struct {
	once   sync.Once
	events chan sidecar.Event
}

func (h *closingHandle) PID() int { return 5150 }

func (h *closingHandle) Kill() error {
	h.once.Do(func() {
		h.events <- sidecar.Event{Kind: sidecar.EventTerminated, Status: sidecar.ExitStatus{Code: -1}}
		close(h.events)
	})
	return nil
}

// delayedEOF reports EOF once after a delay, standing in for a host that
// closes stdin when its window goes away.
type delayedEOF struct{ after time.Duration }

func (r delayedEOF) Read([]byte) (int, error) {
	time.Sleep(r.after)
	return 0, io.EOF
}

func decodeSignals(t *testing.T, out string) []notify.Signal {
	t.Helper()
	var signals []notify.Signal
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var sig notify.Signal
		if err := json.Unmarshal(scanner.Bytes(), &sig); err != nil {
			t.Fatalf("decode signal %q: %v", scanner.Text(), err)
		}
		signals = append(signals, sig)
	}
	return signals
}

func TestProbeCommand(t *testing.T) {
	out, _, err := runCLI(t, shellDeps{prober: healthyProber}, "", "probe")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "healthy")

	out, _, err = runCLI(t, shellDeps{prober: unhealthyProber}, "", "probe")
	if !errors.Is(err, errUnhealthy) {
		t.Fatalf("expected errUnhealthy, got %v", err)
	}
	requireContains(t, out, "unhealthy")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBackend("exit 0"))
	deps := shellDeps{prober: unhealthyProber, ports: portFree}

	out, _, err := runCLI(t, deps, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== FindMyJob ==")
	requireContains(t, out, "[WARN] not responding")
	requireContains(t, out, "[OK] free")
	requireContains(t, out, "[OK] "+env.cfg.Backend.Executable)
	requireContains(t, out, "no runs recorded")

	out, _, err = runCLI(t, shellDeps{prober: unhealthyProber, ports: portBusy}, env.configPath, "status", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var results []preflight.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode status json: %v", err)
	}
	if len(results) < 2 || results[1].Name != "Port 8000" || results[1].Passed {
		t.Fatalf("expected failing port result, got %+v", results)
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, shellDeps{}, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	store := testsupport.MustOpenJournal(t, env.cfg)
	journal := testsupport.BeginRun(t, store, "0f8c2a3e-1111-2222-3333-444455556666")
	ctx := context.Background()
	if err := journal.SetOutcome(ctx, "launched", 4242); err != nil {
		t.Fatal(err)
	}
	if err := journal.MarkStopped(ctx, "killed"); err != nil {
		t.Fatal(err)
	}

	out, _, err = runCLI(t, shellDeps{}, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "launched")
	requireContains(t, out, "4242")
	requireContains(t, out, "0f8c2a3e")

	out, _, err = runCLI(t, shellDeps{}, env.configPath, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var entries []historyEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 1 || entries[0].KillResult != "killed" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, _, err := runCLI(t, shellDeps{}, env.configPath, "history", "--limit", "0"); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestRunReusesHealthyBackend(t *testing.T) {
	env := setupCLITestEnv(t)
	launcher := &testsupport.SpyLauncher{}
	deps := shellDeps{
		prober:   healthyProber,
		ports:    portBusy,
		launcher: launcher,
		stdin:    strings.NewReader(""),
	}

	out, _, err := runCLI(t, deps, env.configPath, "run", "--close-on-stdin-eof")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	signals := decodeSignals(t, out)
	if len(signals) != 1 || signals[0].Name != notify.NameReady {
		t.Fatalf("expected a single ready signal, got %v", signals)
	}
	requireContains(t, out, `{"event":"backend-ready","payload":true}`)
	if len(launcher.Calls()) != 0 {
		t.Fatal("healthy backend must not be relaunched")
	}

	store := testsupport.MustOpenJournal(t, env.cfg)
	runs, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != string(sidecar.OutcomeReusingExternal) || runs[0].KillResult != "none" {
		t.Fatalf("unexpected journal %+v", runs)
	}
}

func TestRunReportsPortConflict(t *testing.T) {
	env := setupCLITestEnv(t)
	deps := shellDeps{
		prober:   unhealthyProber,
		ports:    portBusy,
		launcher: &testsupport.SpyLauncher{},
		stdin:    strings.NewReader(""),
	}

	out, _, err := runCLI(t, deps, env.configPath, "run", "--close-on-stdin-eof")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	signals := decodeSignals(t, out)
	if len(signals) != 1 || signals[0].Message != sidecar.PortConflictMessage {
		t.Fatalf("expected port conflict signal, got %v", signals)
	}
}

func TestRunLaunchesAndKillsOnStdinClose(t *testing.T) {
	env := setupCLITestEnv(t)
	events := make(chan sidecar.Event, 8)
	handle := &closingHandle{events: events}
	launcher := sidecar.LauncherFunc(func(context.Context, string) (<-chan sidecar.Event, sidecar.Handle, error) {
		events <- sidecar.Event{Kind: sidecar.EventStdout, Data: []byte("INFO: Uvicorn running on http://127.0.0.1:8000\n")}
		return events, handle, nil
	})
	deps := shellDeps{
		prober:       testsupport.HealthyAfter(3),
		ports:        portFree,
		launcher:     launcher,
		stdin:        delayedEOF{after: 500 * time.Millisecond},
		pollInterval: 20 * time.Millisecond,
		readyTimeout: 5 * time.Second,
	}

	out, _, err := runCLI(t, deps, env.configPath, "run", "--close-on-stdin-eof")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	signals := decodeSignals(t, out)
	if len(signals) != 1 || signals[0].Name != notify.NameReady {
		t.Fatalf("expected only a ready signal, got %v", signals)
	}

	store := testsupport.MustOpenJournal(t, env.cfg)
	runs, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	run := runs[0]
	if run.Outcome != string(sidecar.OutcomeLaunched) || run.PID != 5150 || run.KillResult != "killed" || run.ReadyAt.IsZero() {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestRunFailsWhenLaunchFails(t *testing.T) {
	env := setupCLITestEnv(t)
	deps := shellDeps{
		prober:   unhealthyProber,
		ports:    portFree,
		launcher: &testsupport.SpyLauncher{Err: testsupport.ErrSpawnRefused},
		stdin:    strings.NewReader(""),
	}

	_, _, err := runCLI(t, deps, env.configPath, "run", "--close-on-stdin-eof")
	if err == nil {
		t.Fatal("expected run to fail")
	}
	var launchErr *sidecar.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	requireContains(t, err.Error(), "start backend")

	store := testsupport.MustOpenJournal(t, env.cfg)
	runs, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || runs[0].FirstError == "" {
		t.Fatalf("expected launch failure recorded, got %+v", runs)
	}
}

func TestLogsCommandShowsRunOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Logging.Level = "info"
	env.save()

	deps := shellDeps{
		prober:   healthyProber,
		ports:    portBusy,
		launcher: &testsupport.SpyLauncher{},
		stdin:    strings.NewReader(""),
	}
	if _, _, err := runCLI(t, deps, env.configPath, "run", "--close-on-stdin-eof"); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, shellDeps{}, env.configPath, "logs", "--component", "supervisor")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "supervisor: backend already running, reusing")
	requireContains(t, out, "no sidecar to kill (was using external backend)")

	if _, _, err := runCLI(t, shellDeps{}, env.configPath, "logs", "--level", "loud"); err == nil {
		t.Fatal("expected invalid level to fail")
	}
}

func TestExitCodeMapsErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"success":   {nil, 0},
		"unhealthy": {fmt.Errorf("probe: %w", errUnhealthy), 2},
		"canceled":  {context.Canceled, 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
