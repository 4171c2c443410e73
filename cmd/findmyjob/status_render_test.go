package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"findmyjob/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Backend", statusError, "not responding", false)
	want := fmt.Sprintf("  %-*s %s", statusLabelWidth, "Backend:", "[ERROR] not responding")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Backend", statusOK, "healthy", true)
	if !strings.HasPrefix(got, statusStyles[statusOK].color) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestResultKind(t *testing.T) {
	cases := []struct {
		result preflight.Result
		want   statusKind
	}{
		{preflight.Result{Name: "Port 8000", Passed: true}, statusOK},
		{preflight.Result{Name: "Backend"}, statusWarn},
		{preflight.Result{Name: "Last run"}, statusWarn},
		{preflight.Result{Name: "Port 8000"}, statusError},
		{preflight.Result{Name: "Backend executable"}, statusError},
	}
	for _, tc := range cases {
		if got := resultKind(tc.result); got != tc.want {
			t.Errorf("resultKind(%+v) = %v, want %v", tc.result, got, tc.want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestStatusReportWritesHeadingAndLines(t *testing.T) {
	report := newStatusReport("FindMyJob", false)
	report.addResult(preflight.Result{Name: "Port 8000", Passed: true, Detail: "free"})
	report.add("Note", statusInfo, "")

	var b strings.Builder
	if _, err := report.WriteTo(&b); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 3 || lines[0] != "== FindMyJob ==" {
		t.Fatalf("unexpected report %q", b.String())
	}
	if !strings.HasSuffix(lines[1], "[OK] free") || !strings.HasSuffix(lines[2], "[INFO]") {
		t.Fatalf("unexpected lines %q", lines[1:])
	}
}
