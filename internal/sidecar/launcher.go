package sidecar

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const eventBuffer = 256

// Handle is the capability to terminate a launched child.
type Handle interface {
	PID() int
	Kill() error
}

// Launcher starts the backend and returns its event stream and handle. The
// stream ends with exactly one EventTerminated, sent once the process has
// exited, and is then closed.
type Launcher interface {
	Launch(ctx context.Context, executable string) (<-chan Event, Handle, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, executable string) (<-chan Event, Handle, error)

func (f LauncherFunc) Launch(ctx context.Context, executable string) (<-chan Event, Handle, error) {
	return f(ctx, executable)
}

// ExecLauncher runs the backend as an OS child process with piped output in
// its own process group.
type ExecLauncher struct {
	Args []string
	Dir  string
	// Env entries are appended to the host environment.
	Env []string
	// BaseDir anchors relative executable references. Defaults to the
	// directory holding the running binary.
	BaseDir string
}

// Resolve turns an executable reference into a path. Absolute paths are used
// as is, references containing a separator are taken relative to BaseDir, and
// bare names are looked up next to the host binary and then on PATH.
func (l *ExecLauncher) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrExecutableNotFound)
	}

	if filepath.IsAbs(ref) {
		return checkExecutable(ref)
	}

	base := l.baseDir()
	if strings.ContainsRune(ref, filepath.Separator) || strings.ContainsRune(ref, '/') {
		return checkExecutable(filepath.Join(base, ref))
	}

	if base != "" {
		if path, err := checkExecutable(filepath.Join(base, ref)); err == nil {
			return path, nil
		}
	}
	path, err := exec.LookPath(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s not beside host binary or on PATH", ErrExecutableNotFound, ref)
	}
	return path, nil
}

func (l *ExecLauncher) baseDir() string {
	if l.BaseDir != "" {
		return l.BaseDir
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

func checkExecutable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrExecutableNotFound, path)
	}
	return path, nil
}

// Launch resolves and starts the executable. The context only guards the
// start; the child outlives it and ends through Kill.
func (l *ExecLauncher) Launch(ctx context.Context, ref string) (<-chan Event, Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, &LaunchError{Executable: ref, Err: err}
	}

	path, err := l.Resolve(ref)
	if err != nil {
		return nil, nil, &LaunchError{Executable: ref, Err: err}
	}

	cmd := exec.Command(path, l.Args...)
	cmd.Dir = l.Dir
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}
	configureCommand(cmd)

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, nil, &LaunchError{Executable: path, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, nil, &LaunchError{Executable: path, Err: fmt.Errorf("stderr pipe: %w", err)}
	}
	cmd.Stdout, cmd.Stderr = outW, errW

	startErr := cmd.Start()
	// The child holds its own copies of the write ends.
	outW.Close()
	errW.Close()
	if startErr != nil {
		outR.Close()
		errR.Close()
		return nil, nil, &LaunchError{Executable: path, Err: startErr}
	}

	child := &Child{cmd: cmd, pid: cmd.Process.Pid, done: make(chan struct{})}
	stream := &eventStream{ch: make(chan Event, eventBuffer)}

	var pumps sync.WaitGroup
	pumps.Add(2)
	go pump(&pumps, outR, EventStdout, stream)
	go pump(&pumps, errR, EventStderr, stream)
	pumped := make(chan struct{})
	go func() {
		pumps.Wait()
		close(pumped)
	}()

	go func() {
		waitErr := cmd.Wait()
		status := exitStatusOf(cmd.ProcessState, waitErr)
		child.finish(status)
		select {
		case <-pumped:
		case <-time.After(exitFlushGrace):
		}
		stream.finish(Event{Kind: EventTerminated, Status: status})
		// Descendants may still hold the write ends open.
		outR.Close()
		errR.Close()
	}()

	return stream.ch, child, nil
}

const (
	// maxLineBytes caps a single output event; longer lines arrive in chunks.
	maxLineBytes = 64 << 10
	// exitFlushGrace bounds how long output still in the pipes is forwarded
	// after the child has exited.
	exitFlushGrace = 250 * time.Millisecond
)

// eventStream guards the event channel so pumps that outlive the child can
// never send after EventTerminated or on a closed channel.
type eventStream struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *eventStream) send(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ch <- ev
	return true
}

// finish delivers the final event and closes the channel.
func (s *eventStream) finish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- ev
	close(s.ch)
	s.closed = true
}

// pump forwards r line by line, splitting lines longer than maxLineBytes. A
// read failure other than EOF or a closed pipe becomes an EventError and the
// stream is then abandoned.
func pump(wg *sync.WaitGroup, r io.Reader, kind EventKind, out *eventStream) {
	defer wg.Done()
	reader := bufio.NewReaderSize(r, maxLineBytes)
	for {
		chunk, err := reader.ReadSlice('\n')
		if len(chunk) > 0 && !out.send(Event{Kind: kind, Data: bytes.Clone(chunk)}) {
			return
		}
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, fs.ErrClosed):
			return
		default:
			out.send(Event{Kind: EventError, Message: fmt.Sprintf("read %s: %v", kind, err)})
			return
		}
	}
}

// Child is a backend process started by ExecLauncher.
type Child struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}

	mu     sync.Mutex
	status ExitStatus
}

func (c *Child) PID() int { return c.pid }

// Kill sends SIGKILL to the child's process group, or kills the process on
// platforms without groups.
func (c *Child) Kill() error {
	select {
	case <-c.done:
		return fmt.Errorf("kill pid %d: %w", c.pid, os.ErrProcessDone)
	default:
	}
	if err := killProcess(c.cmd.Process); err != nil {
		return fmt.Errorf("kill pid %d: %w", c.pid, err)
	}
	return nil
}

// Done is closed once the child has been reaped.
func (c *Child) Done() <-chan struct{} { return c.done }

// Status returns the exit status after Done is closed.
func (c *Child) Status() ExitStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Child) finish(status ExitStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
	close(c.done)
}
