package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an ID prefix matches several runs.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

const runColumns = "id, kind, input, status, exit_code, detail, output, started_at, finished_at"

// Begin records a new running task.
func (s *Store) Begin(ctx context.Context, kind Kind, input string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Input:     input,
		Status:    StatusRunning,
		StartedAt: s.now(),
	}
	if _, err := s.exec(ctx,
		`INSERT INTO runs (id, kind, input, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Input, string(run.Status), formatTime(run.StartedAt),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the terminal status of run and stamps its finish time.
func (s *Store) Finish(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("finish: nil run")
	}
	if !run.Status.Terminal() {
		return fmt.Errorf("finish: status %q is not terminal", run.Status)
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = s.now()
	}
	var exitCode any
	if run.ExitCode != nil {
		exitCode = *run.ExitCode
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, exit_code = ?, detail = ?, output = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), exitCode, run.Detail, run.Output, formatTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return run, err
}

// Lookup returns the run whose ID starts with prefix. A prefix matching
// more than one run is an error.
func (s *Store) Lookup(ctx context.Context, prefix string) (*Run, error) {
	prefix = strings.NewReplacer("%", "", "_", "").Replace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("lookup: %w", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id LIKE ? LIMIT 2", prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("lookup runs: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("lookup %s: %w", prefix, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("lookup %s: %w", prefix, ErrAmbiguous)
	}
}

// List returns the most recent runs first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Clear deletes every run and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, "DELETE FROM runs")
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

// MarkAbandoned fails runs still marked running, left behind by a process
// that exited without finishing them.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, detail = ?, finished_at = ? WHERE status = ?`,
		string(StatusFailed), "abandoned: scribe exited before the task finished", formatTime(s.now()), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		kind       string
		status     string
		exitCode   sql.NullInt64
		startedAt  string
		finishedAt sql.NullString
	)
	if err := sc.Scan(&run.ID, &kind, &run.Input, &status, &exitCode, &run.Detail, &run.Output, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.Kind = Kind(kind)
	run.Status = Status(status)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		run.ExitCode = &code
	}
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return &run, nil
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
