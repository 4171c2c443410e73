package logging

import (
	"context"
	"log/slog"
)

// runIDHandler stamps run_id onto every record it forwards. Once a group is
// opened the attribute is bound ahead of it so it stays at the top level.
type runIDHandler struct {
	next  slog.Handler
	runID slog.Attr
	bound bool
}

func newRunIDHandler(next slog.Handler, runID string) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &runIDHandler{next: next, runID: slog.String(FieldRunID, runID)}
}

func (h *runIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *runIDHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.bound {
		record.AddAttrs(h.runID)
	}
	return h.next.Handle(ctx, record)
}

func (h *runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runIDHandler{next: h.next.WithAttrs(attrs), runID: h.runID, bound: h.bound}
}

func (h *runIDHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.next
	if !h.bound {
		next = next.WithAttrs([]slog.Attr{h.runID})
	}
	return &runIDHandler{next: next.WithGroup(name), runID: h.runID, bound: true}
}
