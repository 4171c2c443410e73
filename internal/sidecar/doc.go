// Package sidecar launches and supervises the bundled backend process.
//
// Supervisor.Start decides once per run whether to reuse a backend that already
// answers health checks, report a port conflict, or launch the bundled
// executable. When it launches, two background goroutines take over: Drain
// consumes the child's output and lifecycle events so the child never blocks on
// a full pipe, and a readiness waiter polls the health endpoint. Both report
// through notify signals. Shutdown takes the child handle under the supervisor
// mutex and kills it at most once.
//
// Constants such as the health URL, port, and timeouts live in the health and
// portcheck packages; Options lets tests substitute every collaborator.
package sidecar
