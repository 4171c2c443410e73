package portcheck_test

import (
	"net"
	"testing"

	"findmyjob/internal/portcheck"
)

func TestIsFreeReleasesListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if !portcheck.IsFree(addr) {
		t.Fatalf("expected %s to be free", addr)
	}
	// A second check only succeeds if the first one let go of the port.
	if !portcheck.Addr(addr).IsFree() {
		t.Fatalf("expected %s to remain free after a check", addr)
	}
}

func TestIsFreeDetectsOccupiedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if portcheck.IsFree(ln.Addr().String()) {
		t.Fatal("expected occupied port to be reported busy")
	}
}

func TestDefaultAddr(t *testing.T) {
	if portcheck.DefaultAddr != "127.0.0.1:8000" {
		t.Fatalf("unexpected default addr %q", portcheck.DefaultAddr)
	}
}
