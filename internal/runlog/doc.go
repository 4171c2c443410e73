// Package runlog keeps a SQLite journal of supervisor runs.
//
// Each run of the host shell gets one row keyed by its run id: the launch
// outcome, the child pid when one was launched, when the backend became ready,
// the first error signal, and how shutdown went. The `history` command and the
// `status` preflight read it back. The supervisor writes through RunJournal,
// which binds a Store to a single run id.
package runlog
