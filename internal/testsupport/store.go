package testsupport

import (
	"context"
	"testing"

	"findmyjob/internal/config"
	"findmyjob/internal/runlog"
)

// MustOpenJournal opens the run journal for cfg and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *runlog.Store {
	t.Helper()

	store, err := runlog.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("runlog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun starts a journal row for runID.
func BeginRun(t testing.TB, store *runlog.Store, runID string) *runlog.RunJournal {
	t.Helper()

	journal, err := store.Begin(context.Background(), runID)
	if err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return journal
}
