package notify

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"findmyjob/internal/logging"
)

// Emitter receives signals. Implementations must tolerate concurrent calls.
type Emitter interface {
	Emit(Signal)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Signal)

func (f EmitterFunc) Emit(s Signal) { f(s) }

// Discard drops every signal.
var Discard Emitter = EmitterFunc(func(Signal) {})

// Fanout delivers each signal to every member in order.
type Fanout []Emitter

func (f Fanout) Emit(s Signal) {
	for _, e := range f {
		if e != nil {
			e.Emit(s)
		}
	}
}

// ChannelEmitter queues signals on a buffered channel. Emit never blocks: when
// the buffer is full the signal is dropped and counted.
type ChannelEmitter struct {
	ch      chan Signal
	dropped atomic.Int64
}

// NewChannelEmitter returns an emitter with room for size pending signals.
func NewChannelEmitter(size int) *ChannelEmitter {
	if size < 1 {
		size = 1
	}
	return &ChannelEmitter{ch: make(chan Signal, size)}
}

func (c *ChannelEmitter) Emit(s Signal) {
	select {
	case c.ch <- s:
	default:
		c.dropped.Add(1)
	}
}

// C returns the receive side.
func (c *ChannelEmitter) C() <-chan Signal { return c.ch }

// Dropped reports how many signals were discarded because the buffer was full.
func (c *ChannelEmitter) Dropped() int64 { return c.dropped.Load() }

// JSONEmitter writes one JSON object per line.
type JSONEmitter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	logger *slog.Logger
}

// NewJSONEmitter writes signals to w. Write failures are logged to logger.
func NewJSONEmitter(w io.Writer, logger *slog.Logger) *JSONEmitter {
	return &JSONEmitter{
		enc:    json.NewEncoder(w),
		logger: logging.NewComponentLogger(logger, "notify"),
	}
}

func (j *JSONEmitter) Emit(s Signal) {
	j.mu.Lock()
	err := j.enc.Encode(s)
	j.mu.Unlock()
	if err != nil {
		logging.WarnWithContext(j.logger, "signal write failed", "signal_write",
			logging.String("signal", s.Name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "host did not receive the signal"),
		)
	}
}

// LogEmitter records signals as log lines.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) LogEmitter {
	return LogEmitter{logger: logging.NewComponentLogger(logger, "notify")}
}

func (l LogEmitter) Emit(s Signal) {
	if s.IsError() {
		l.logger.Warn("signal emitted",
			logging.String("signal", s.Name),
			logging.String("message", s.Message),
			logging.String(logging.FieldEventType, "signal"),
		)
		return
	}
	l.logger.Info("signal emitted",
		logging.String("signal", s.Name),
		logging.String(logging.FieldEventType, "signal"),
	)
}
