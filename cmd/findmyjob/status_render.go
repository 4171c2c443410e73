package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"findmyjob/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const statusLabelWidth = 20

// statusReport collects status lines under a heading.
type statusReport struct {
	title    string
	colorize bool
	lines    []string
}

func newStatusReport(title string, colorize bool) *statusReport {
	return &statusReport{title: strings.TrimSpace(title), colorize: colorize}
}

func (r *statusReport) add(label string, kind statusKind, message string) {
	r.lines = append(r.lines, renderStatusLine(label, kind, message, r.colorize))
}

func (r *statusReport) addResult(result preflight.Result) {
	r.add(result.Name, resultKind(result), result.Detail)
}

func (r *statusReport) WriteTo(w io.Writer) (int64, error) {
	heading := "== " + r.title + " =="
	if r.colorize {
		heading = statusStyles[statusInfo].color + heading + ansiReset
	}
	n, err := fmt.Fprintf(w, "%s\n%s\n", heading, strings.Join(r.lines, "\n"))
	return int64(n), err
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	badge := "[" + style.label + "]"
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", badge)
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

// resultKind maps a preflight result onto a status line kind. The backend
// being down is a warning since "run" would start it.
func resultKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Name == "Backend", result.Name == "Last run":
		return statusWarn
	default:
		return statusError
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
