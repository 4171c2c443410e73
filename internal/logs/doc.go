// Package logs reads back the JSON log file written by the FindMyJob shell.
//
// It parses records produced by the logging package's JSON handler, filters
// them by run, component, and level, and tails the file with bounded memory.
// Follow mode polls for appended records and restarts from the top when the
// file is truncated. The CLI "findmyjob logs" command is the main caller.
package logs
