//go:build unix

package sidecar_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"findmyjob/internal/sidecar"
	"findmyjob/internal/testsupport"
)

func TestTerminationReportedWhileDescendantHoldsOutput(t *testing.T) {
	exe := testsupport.WriteScript(t, t.TempDir(), "backend", "echo starting\nsleep 20 &\nexit 3")
	events, handle, err := (&sidecar.ExecLauncher{}).Launch(context.Background(), exe)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	// The backgrounded sleep stays in the child's process group.
	t.Cleanup(func() { _ = unix.Kill(-handle.PID(), unix.SIGKILL) })

	start := time.Now()
	got := collect(t, events, 5*time.Second)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("termination took %v", elapsed)
	}
	if len(got) < 2 || strings.TrimSpace(string(got[0].Data)) != "starting" {
		t.Fatalf("expected output before termination, got %+v", got)
	}
	last := got[len(got)-1]
	if last.Kind != sidecar.EventTerminated || last.Status.Code != 3 {
		t.Fatalf("expected termination with code 3, got %+v", last)
	}
}
