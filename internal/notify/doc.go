// Package notify carries backend lifecycle signals from the supervisor to
// whatever hosts it.
//
// Two signals exist: backend-ready with payload true and backend-error with a
// human-readable message. Producers call Emitter.Emit from any goroutine;
// every Emitter in this package is safe for concurrent use. JSONEmitter is the
// wire form consumed by a GUI wrapper reading the host's stdout. Tracker
// reduces a signal sequence to the status a consumer should display.
package notify
