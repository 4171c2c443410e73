package testsupport

import (
	"context"
	"log/slog"
	"sync"
)

// LogRecord is a captured log entry with its attributes flattened.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that keeps every record for assertions.
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewLogRecorder returns a debug-level logger and its recorder.
func NewLogRecorder() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{mu: &sync.Mutex{}, records: &[]LogRecord{}}
	return slog.New(rec), rec
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(r.attrs)+record.NumAttrs())
	for _, a := range r.attrs {
		if _, ok := attrs[a.Key]; !ok {
			attrs[a.Key] = a.Value.String()
		}
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	r.mu.Lock()
	*r.records = append(*r.records, LogRecord{Level: record.Level, Message: record.Message, Attrs: attrs})
	r.mu.Unlock()
	return nil
}

func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{mu: r.mu, records: r.records, attrs: append(append([]slog.Attr(nil), r.attrs...), attrs...)}
}

// WithGroup is flattened: grouped attributes keep their bare keys.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of everything captured.
func (r *LogRecorder) Records() []LogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogRecord(nil), *r.records...)
}

// Filter returns records whose attribute key equals value.
func (r *LogRecorder) Filter(key, value string) []LogRecord {
	var out []LogRecord
	for _, rec := range r.Records() {
		if rec.Attrs[key] == value {
			out = append(out, rec)
		}
	}
	return out
}

// Contains reports whether any record has message msg.
func (r *LogRecorder) Contains(msg string) bool {
	for _, rec := range r.Records() {
		if rec.Message == msg {
			return true
		}
	}
	return false
}
