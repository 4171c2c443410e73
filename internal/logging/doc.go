// Package logging assembles structured slog loggers and formatting helpers used
// across the FindMyJob shell.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// stamps every record with the run identifier so supervisor decisions, forwarded
// backend output, and shutdown results from one application run can be grouped.
// The package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the shell.
package logging
