package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a run id has no journal row.
var ErrNotFound = errors.New("run not found")

// Run is one journal row. Zero times mean the milestone was never reached.
type Run struct {
	ID         string
	StartedAt  time.Time
	Outcome    string
	PID        int
	ReadyAt    time.Time
	FirstError string
	ErrorCount int
	StoppedAt  time.Time
	KillResult string
}

// ReadyAfter returns the time from start to readiness, or zero.
func (r Run) ReadyAfter() time.Duration {
	if r.ReadyAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.ReadyAt.Sub(r.StartedAt)
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the journal at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("run journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Begin inserts a row for runID and returns a journal bound to it.
func (s *Store) Begin(ctx context.Context, runID string) (*RunJournal, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("run id is empty")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		runID, s.timestamp(),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &RunJournal{store: s, runID: runID}, nil
}

// SetOutcome records the launch decision and, for launched runs, the pid.
func (s *Store) SetOutcome(ctx context.Context, runID, outcome string, pid int) error {
	return s.update(ctx, runID, "set outcome",
		`UPDATE runs SET outcome = ?, pid = ? WHERE run_id = ?`,
		outcome, nullableInt(pid), runID)
}

// MarkReady stamps the first readiness time. Later calls keep the first.
func (s *Store) MarkReady(ctx context.Context, runID string) error {
	return s.update(ctx, runID, "mark ready",
		`UPDATE runs SET ready_at = COALESCE(ready_at, ?) WHERE run_id = ?`,
		s.timestamp(), runID)
}

// RecordError counts an error signal and keeps the first message.
func (s *Store) RecordError(ctx context.Context, runID, message string) error {
	return s.update(ctx, runID, "record error",
		`UPDATE runs SET first_error = COALESCE(first_error, ?), error_count = error_count + 1 WHERE run_id = ?`,
		message, runID)
}

// MarkStopped stamps shutdown time and the kill result.
func (s *Store) MarkStopped(ctx context.Context, runID, killResult string) error {
	return s.update(ctx, runID, "mark stopped",
		`UPDATE runs SET stopped_at = ?, kill_result = ? WHERE run_id = ?`,
		s.timestamp(), killResult, runID)
}

func (s *Store) update(ctx context.Context, runID, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, runID, ErrNotFound)
	}
	return nil
}

const runColumns = "run_id, started_at, outcome, pid, ready_at, first_error, error_count, stopped_at, kill_result"

// Get fetches one run.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Prune deletes all but the newest keep runs. keep <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE rowid NOT IN (
            SELECT rowid FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		startedRaw string
		outcome    sql.NullString
		pid        sql.NullInt64
		readyRaw   sql.NullString
		firstError sql.NullString
		stoppedRaw sql.NullString
		killResult sql.NullString
	)
	if err := scanner.Scan(&run.ID, &startedRaw, &outcome, &pid, &readyRaw, &firstError,
		&run.ErrorCount, &stoppedRaw, &killResult); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(sql.NullString{String: startedRaw, Valid: true})
	run.Outcome = outcome.String
	run.PID = int(pid.Int64)
	run.ReadyAt = parseTime(readyRaw)
	run.FirstError = firstError.String
	run.StoppedAt = parseTime(stoppedRaw)
	run.KillResult = killResult.String
	return &run, nil
}

func parseTime(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
