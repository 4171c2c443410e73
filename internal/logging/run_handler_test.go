package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestRunIDHandlerKeepsRunIDTopLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRunIDHandler(slog.NewJSONHandler(&buf, nil), "run-7"))

	logger.Info("plain")
	logger.WithGroup("child").With(slog.Int("pid", 9)).Info("grouped")

	dec := json.NewDecoder(&buf)
	for _, msg := range []string{"plain", "grouped"} {
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			t.Fatalf("decode %s: %v", msg, err)
		}
		if record["msg"] != msg {
			t.Fatalf("unexpected record order: %v", record)
		}
		if record[FieldRunID] != "run-7" {
			t.Fatalf("expected top-level run_id on %s, got %v", msg, record)
		}
	}
}

func TestNewRunIDHandlerNilBase(t *testing.T) {
	if _, ok := newRunIDHandler(nil, "x").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for nil base")
	}
}
