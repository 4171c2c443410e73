package sidecar_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"findmyjob/internal/sidecar"
	"findmyjob/internal/testsupport"
)

func TestResolveExecutable(t *testing.T) {
	base := t.TempDir()
	beside := testsupport.WriteScript(t, base, "findmyjob-backend", "exit 0")
	nested := testsupport.WriteScript(t, filepath.Join(base, "resources"), "backend", "exit 0")
	onPath := testsupport.WriteScript(t, filepath.Join(base, "path"), "path-backend", "exit 0")
	t.Setenv("PATH", filepath.Dir(onPath))

	launcher := &sidecar.ExecLauncher{BaseDir: base}
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "absolute", ref: beside, want: beside},
		{name: "bare name beside host", ref: "findmyjob-backend", want: beside},
		{name: "relative to host", ref: filepath.Join("resources", "backend"), want: nested},
		{name: "bare name on PATH", ref: "path-backend", want: onPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := launcher.Resolve(tt.ref)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.ref, err)
			}
			if got != tt.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolveMissingExecutable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	launcher := &sidecar.ExecLauncher{BaseDir: t.TempDir()}

	for _, ref := range []string{"", "nope", filepath.Join(t.TempDir(), "absent"), launcher.BaseDir} {
		if _, err := launcher.Resolve(ref); !errors.Is(err, sidecar.ErrExecutableNotFound) {
			t.Fatalf("Resolve(%q): expected ErrExecutableNotFound, got %v", ref, err)
		}
	}
}

func TestLaunchMissingExecutableIsLaunchError(t *testing.T) {
	launcher := &sidecar.ExecLauncher{BaseDir: t.TempDir()}
	_, handle, err := launcher.Launch(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if handle != nil {
		t.Fatal("expected no handle on failure")
	}
	var launchErr *sidecar.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected *LaunchError, got %T %v", err, err)
	}
	if !errors.Is(err, sidecar.ErrExecutableNotFound) {
		t.Fatalf("expected ErrExecutableNotFound in chain, got %v", err)
	}
}

func TestLaunchReportsExitStatus(t *testing.T) {
	launcher, exe := helperLauncher(t, "exit", "3")
	events, handle, err := launcher.Launch(context.Background(), exe)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if handle.PID() <= 0 {
		t.Fatalf("expected pid, got %d", handle.PID())
	}

	got := collect(t, events, 10*time.Second)
	if len(got) < 2 {
		t.Fatalf("expected output and termination, got %+v", got)
	}
	if got[0].Kind != sidecar.EventStdout || strings.TrimSpace(string(got[0].Data)) != "starting" {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	last := got[len(got)-1]
	if last.Kind != sidecar.EventTerminated || last.Status.Code != 3 {
		t.Fatalf("expected termination with code 3, got %+v", last)
	}
	for _, ev := range got[:len(got)-1] {
		if ev.Kind == sidecar.EventTerminated {
			t.Fatal("termination must be the final event")
		}
	}
}

func TestKillEndsChildAndSecondKillFails(t *testing.T) {
	launcher, exe := helperLauncher(t, "sleep")
	events, handle, err := launcher.Launch(context.Background(), exe)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	child := handle.(*sidecar.Child)

	if err := child.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	got := collect(t, events, 10*time.Second)
	last := got[len(got)-1]
	if last.Kind != sidecar.EventTerminated || last.Status.Code != -1 {
		t.Fatalf("expected signalled termination, got %+v", last)
	}

	<-child.Done()
	if err := child.Kill(); !errors.Is(err, os.ErrProcessDone) {
		t.Fatalf("expected ErrProcessDone on second kill, got %v", err)
	}
}

func TestLaunchHonoursCancelledContext(t *testing.T) {
	launcher, exe := helperLauncher(t, "exit", "0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := launcher.Launch(ctx, exe); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLaunchSplitsOversizedLines(t *testing.T) {
	size := 3*sidecar.MaxLineBytes + 100
	launcher, exe := helperLauncher(t, "longline", strconv.Itoa(size))
	events, _, err := launcher.Launch(context.Background(), exe)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	var total int
	var chunks int
	for _, ev := range collect(t, events, 10*time.Second) {
		if ev.Kind != sidecar.EventStdout {
			continue
		}
		if len(ev.Data) > sidecar.MaxLineBytes {
			t.Fatalf("chunk of %d bytes exceeds cap %d", len(ev.Data), sidecar.MaxLineBytes)
		}
		total += len(ev.Data)
		chunks++
	}
	if total != size+1 {
		t.Fatalf("forwarded %d bytes, want %d", total, size+1)
	}
	if chunks < 4 {
		t.Fatalf("expected the line to be split, got %d chunks", chunks)
	}
}
