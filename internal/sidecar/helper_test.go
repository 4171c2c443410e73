package sidecar_test

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"findmyjob/internal/sidecar"
)

// TestHelperProcess is not a real test. Launch tests re-exec the test binary
// with GO_WANT_HELPER_PROCESS=1 so it behaves like a backend.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "helper: missing mode")
		os.Exit(2)
	}
	mode, rest := args[1], args[2:]

	stdout := bufio.NewWriter(os.Stdout)
	stderr := bufio.NewWriter(os.Stderr)
	switch mode {
	case "flood":
		n, _ := strconv.Atoi(rest[0])
		for i := 0; i < n; i++ {
			fmt.Fprintf(stdout, "out %d\n", i)
			fmt.Fprintf(stderr, "err %d\n", i)
		}
		stdout.Flush()
		stderr.Flush()
		os.Exit(0)
	case "exit":
		code, _ := strconv.Atoi(rest[0])
		fmt.Fprintln(stdout, "starting")
		stdout.Flush()
		os.Exit(code)
	case "sleep":
		fmt.Fprintln(stdout, "sleeping")
		stdout.Flush()
		time.Sleep(time.Hour)
		os.Exit(0)
	case "longline":
		n, _ := strconv.Atoi(rest[0])
		os.Stdout.Write(append(bytes.Repeat([]byte{'x'}, n), '\n'))
		os.Exit(0)
	case "badutf8":
		os.Stdout.Write([]byte{'o', 'k', 0xff, '\n'})
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "helper: unknown mode %q\n", mode)
	os.Exit(2)
}

// helperLauncher returns a launcher and executable reference that start the
// test binary in helper mode.
func helperLauncher(t *testing.T, mode ...string) (*sidecar.ExecLauncher, string) {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	launcher := &sidecar.ExecLauncher{
		Args: append([]string{"-test.run=^TestHelperProcess$", "--"}, mode...),
		Env:  []string{"GO_WANT_HELPER_PROCESS=1"},
	}
	return launcher, exe
}

// collect reads a stream to its end or fails the test after timeout.
func collect(t *testing.T, events <-chan sidecar.Event, timeout time.Duration) []sidecar.Event {
	t.Helper()
	deadline := time.After(timeout)
	var out []sidecar.Event
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("event stream still open after %v (%d events)", timeout, len(out))
		}
	}
}
