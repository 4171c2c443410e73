package logs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"findmyjob/internal/logging"
)

// Entry is one decoded log record.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	RunID     string
	Attrs     []Attr
}

// Attr is a non-core field of a record, in key order.
type Attr struct {
	Key   string
	Value any
}

var errNotJSON = errors.New("not a json log record")

// ParseEntry decodes a JSON log line.
func ParseEntry(line []byte) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", errNotJSON, err)
	}

	var entry Entry
	if ts, ok := raw["ts"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	}
	if lvl, ok := raw["level"].(string); ok {
		entry.Level = parseLevel(lvl)
	}
	entry.Message, _ = raw["msg"].(string)
	entry.Component, _ = raw[logging.FieldComponent].(string)
	entry.RunID, _ = raw[logging.FieldRunID].(string)

	for key, value := range raw {
		switch key {
		case "ts", "level", "msg", "source", logging.FieldComponent, logging.FieldRunID:
			continue
		}
		entry.Attrs = append(entry.Attrs, Attr{Key: key, Value: value})
	}
	sort.Slice(entry.Attrs, func(i, j int) bool { return entry.Attrs[i].Key < entry.Attrs[j].Key })
	return entry, nil
}

// Attr returns the value for key, if present.
func (e Entry) Attr(key string) (any, bool) {
	for _, attr := range e.Attrs {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// Format renders the entry as a single console line.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format(time.DateTime))
		b.WriteByte(' ')
	}
	b.WriteString(levelName(e.Level))
	b.WriteByte(' ')
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for _, attr := range e.Attrs {
		fmt.Fprintf(&b, " %s=%v", attr.Key, formatAttr(attr.Value))
	}
	return b.String()
}

func formatAttr(v any) string {
	switch value := v.(type) {
	case string:
		if value == "" || strings.ContainsAny(value, " =\"") {
			return fmt.Sprintf("%q", value)
		}
		return value
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	}
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// Filter selects entries. Empty fields match everything.
type Filter struct {
	RunID     string
	Component string
	MinLevel  slog.Level
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.RunID != "" && !strings.HasPrefix(e.RunID, f.RunID) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(e.Component, f.Component) {
		return false
	}
	return e.Level >= f.MinLevel
}
