package notify

import (
	"encoding/json"
	"fmt"
)

// Signal names.
const (
	NameReady = "backend-ready"
	NameError = "backend-error"
)

// Signal is an outward readiness or error notification.
type Signal struct {
	Name    string
	Ready   bool
	Message string
}

// Ready builds the backend-ready signal.
func Ready() Signal {
	return Signal{Name: NameReady, Ready: true}
}

// Error builds a backend-error signal carrying message.
func Error(message string) Signal {
	return Signal{Name: NameError, Message: message}
}

// Errorf builds a backend-error signal from a format string.
func Errorf(format string, args ...any) Signal {
	return Error(fmt.Sprintf(format, args...))
}

// IsError reports whether s is a backend-error signal.
func (s Signal) IsError() bool { return s.Name == NameError }

// Payload returns the value delivered alongside the signal name.
func (s Signal) Payload() any {
	if s.Name == NameReady {
		return s.Ready
	}
	return s.Message
}

func (s Signal) String() string {
	if s.Name == NameReady {
		return s.Name
	}
	return s.Name + ": " + s.Message
}

type wireSignal struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the signal as {"event": name, "payload": value}.
func (s Signal) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(s.Payload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireSignal{Event: s.Name, Payload: payload})
}

// UnmarshalJSON decodes the wire form written by MarshalJSON.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var wire wireSignal
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Event {
	case NameReady:
		var ready bool
		if err := json.Unmarshal(wire.Payload, &ready); err != nil {
			return fmt.Errorf("decode %s payload: %w", wire.Event, err)
		}
		*s = Signal{Name: NameReady, Ready: ready}
	case NameError:
		var message string
		if err := json.Unmarshal(wire.Payload, &message); err != nil {
			return fmt.Errorf("decode %s payload: %w", wire.Event, err)
		}
		*s = Error(message)
	default:
		return fmt.Errorf("unknown signal %q", wire.Event)
	}
	return nil
}
