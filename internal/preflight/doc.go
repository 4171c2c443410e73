// Package preflight provides readiness checks for the backend, its port, and
// the local paths the FindMyJob shell depends on.
//
// The CLI "findmyjob status" command runs RunAll and renders each Result as a
// status line. Individual checks are exported so other commands can reuse
// them; none of them mutate state or start processes.
package preflight
