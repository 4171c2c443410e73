package sidecar

import (
	"bytes"
	"log/slog"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"findmyjob/internal/logging"
	"findmyjob/internal/notify"
)

// Drain consumes a child's event stream. Output lines are decoded and logged
// under the backend component; errors and termination become signals.
type Drain struct {
	Emitter  notify.Emitter
	Logger   *slog.Logger
	Observer Observer

	decoder *encoding.Decoder
}

// Run blocks until the stream reports termination or is closed. It returns the
// exit status and whether a termination event was seen.
func (d *Drain) Run(events <-chan Event) (ExitStatus, bool) {
	emitter := d.Emitter
	if emitter == nil {
		emitter = notify.Discard
	}
	observer := d.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	logger := logging.NewComponentLogger(d.Logger, "backend")
	d.decoder = unicode.UTF8.NewDecoder()

	for ev := range events {
		switch ev.Kind {
		case EventStdout, EventStderr:
			stream := ev.Kind.String()
			observer.ObserveLine(stream)
			logger.Info(d.decode(ev.Data), logging.String(logging.FieldStream, stream))
		case EventError:
			logging.ErrorWithContext(logger, "backend stream error", "stream_error",
				logging.String("detail", ev.Message),
			)
			emitter.Emit(notify.Error(StreamErrorMessage(ev.Message)))
		case EventTerminated:
			logging.ErrorWithContext(logger, "backend process terminated", "backend_terminated",
				logging.Int("exit_code", ev.Status.Code),
				logging.String("exit_status", ev.Status.String()),
				logging.String(logging.FieldErrorHint, "check backend output above"),
			)
			emitter.Emit(notify.Error(UnexpectedStopMessage))
			return ev.Status, true
		default:
			logger.Debug("ignoring backend event", logging.String("kind", ev.Kind.String()))
		}
	}
	return ExitStatus{}, false
}

// decode replaces invalid UTF-8 with U+FFFD and strips the line terminator.
func (d *Drain) decode(data []byte) string {
	decoded, err := d.decoder.Bytes(data)
	if err != nil {
		decoded = bytes.ToValidUTF8(data, []byte("\uFFFD"))
	}
	decoded = bytes.TrimRight(decoded, "\r\n")
	return string(decoded)
}
