// Package main hosts the FindMyJob shell entrypoint and command graph.
//
// The Cobra-based command tree wraps the backend supervisor: "run" owns the
// backend for the lifetime of the host window, while "probe", "status", and
// "history" inspect a backend and past runs without starting anything.
// Configuration resolution and logger construction live here so subcommands
// stay declarative; the supervision logic itself belongs to internal/sidecar.
package main
