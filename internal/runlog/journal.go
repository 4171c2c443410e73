package runlog

import "context"

// RunJournal writes to the row of a single run.
type RunJournal struct {
	store *Store
	runID string
}

// RunID returns the bound run id.
func (j *RunJournal) RunID() string { return j.runID }

func (j *RunJournal) SetOutcome(ctx context.Context, outcome string, pid int) error {
	return j.store.SetOutcome(ctx, j.runID, outcome, pid)
}

func (j *RunJournal) MarkReady(ctx context.Context) error {
	return j.store.MarkReady(ctx, j.runID)
}

func (j *RunJournal) RecordError(ctx context.Context, message string) error {
	return j.store.RecordError(ctx, j.runID, message)
}

func (j *RunJournal) MarkStopped(ctx context.Context, killResult string) error {
	return j.store.MarkStopped(ctx, j.runID, killResult)
}
