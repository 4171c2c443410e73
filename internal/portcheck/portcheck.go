// Package portcheck tells whether a loopback TCP port can be bound right now.
package portcheck

import (
	"net"
)

// DefaultAddr is the backend's listening address.
const DefaultAddr = "127.0.0.1:8000"

// IsFree reports whether addr can be bound. The probe listener is released
// before returning. The answer is stale the moment it is returned.
func IsFree(addr string) bool {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	defer ln.Close()
	return true
}

// Checker is the port availability dependency of the supervisor.
type Checker interface {
	IsFree() bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func() bool

func (f CheckerFunc) IsFree() bool { return f() }

// Addr checks a fixed address.
type Addr string

func (a Addr) IsFree() bool { return IsFree(string(a)) }
