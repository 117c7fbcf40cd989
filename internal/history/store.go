// Package history keeps an SQLite log of every gather and pull-info pass.
//
// A run row is written when a pass starts and finished when it ends; each
// per-record outcome of the pass is stored as an event keyed by the run id.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

// DefaultDBPath is the history database location relative to the project
var DefaultDBPath = filepath.Join(".kaizen", "history.db")

// fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run kinds
const (
	KindGather = "gather"
	KindPull   = "pull"
	KindSync   = "sync"
)

// Run is one recorded pass
type Run struct {
	ID           string
	Kind         string
	ProgressFile string
	Started      time.Time
	Finished     time.Time // zero while the pass is running
	Succeeded    int
	Failed       int
	Skipped      int
	Error        string
}

// Running reports whether the pass never finished
func (r *Run) Running() bool {
	return r.Finished.IsZero()
}

// Event is the outcome for one record within a run
type Event struct {
	RunID    string
	Category models.Category
	ItemID   string
	SCC      string
	Outcome  string
	Source   string
	Method   string
	Score    float64
	Detail   string
	Recorded time.Time
}

// Store manages the history database
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open opens or creates the database at dbPath and applies pending migrations
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// connection-scoped settings go in the DSN so every pooled connection gets them
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath, now: time.Now}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// execWithRetry retries stmt with exponential backoff while the database is locked
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

// BeginRun inserts a new running pass and returns it
func (s *Store) BeginRun(ctx context.Context, kind, progressFile string) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		Kind:         kind,
		ProgressFile: progressFile,
	}
	started := s.stamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, progress_file, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Kind, run.ProgressFile, started)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	run.Started, _ = time.Parse(timeLayout, started)
	return run, nil
}

// Record stores events for runID in one transaction and bumps the run counters.
// Outcomes listed in succeeded count as successes, "skipped" as skips and
// everything else as failures.
func (s *Store) Record(ctx context.Context, runID string, events []Event, succeeded ...string) error {
	if len(events) == 0 {
		return nil
	}
	ok := make(map[string]bool, len(succeeded))
	for _, o := range succeeded {
		ok[o] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events
		(run_id, category, item_id, scc, outcome, source, method, score, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	var nOK, nFailed, nSkipped int
	recorded := s.stamp()
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, runID, e.Category.String(), e.ItemID, e.SCC, e.Outcome,
			e.Source, e.Method, e.Score, e.Detail, recorded); err != nil {
			return fmt.Errorf("insert event %s/%s: %w", e.ItemID, e.SCC, err)
		}
		switch {
		case ok[e.Outcome]:
			nOK++
		case e.Outcome == "skipped":
			nSkipped++
		default:
			nFailed++
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET succeeded = succeeded + ?, failed = failed + ?, skipped = skipped + ? WHERE id = ?`,
		nOK, nFailed, nSkipped, runID)
	if err != nil {
		return fmt.Errorf("update run counters: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit events: %w", err)
	}
	return nil
}

// FinishRun marks the run finished, storing runErr when the pass failed
func (s *Store) FinishRun(ctx context.Context, run *Run, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	finished := s.stamp()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, error = ? WHERE id = ?`, finished, msg, run.ID); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	run.Finished, _ = time.Parse(timeLayout, finished)
	run.Error = msg
	return nil
}

const runColumns = `id, kind, progress_file, started_at, COALESCE(finished_at, ''), succeeded, failed, skipped, COALESCE(error, '')`

// RecentRuns returns up to limit runs, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with id, or sql.ErrNoRows
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var started, finished string
	if err := sc.Scan(&r.ID, &r.Kind, &r.ProgressFile, &started, &finished,
		&r.Succeeded, &r.Failed, &r.Skipped, &r.Error); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Started, _ = time.Parse(timeLayout, started)
	if finished != "" {
		r.Finished, _ = time.Parse(timeLayout, finished)
	}
	return &r, nil
}

// RunEvents returns the events of a run in insertion order
func (s *Store) RunEvents(ctx context.Context, runID string) ([]Event, error) {
	return s.queryEvents(ctx, `WHERE run_id = ? ORDER BY id`, runID)
}

// ItemHistory returns up to limit events for one identifier, newest first
func (s *Store) ItemHistory(ctx context.Context, c models.Category, itemID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryEvents(ctx, `WHERE category = ? AND item_id = ? ORDER BY id DESC LIMIT ?`,
		c.String(), itemID, limit)
}

func (s *Store) queryEvents(ctx context.Context, where string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, category, item_id, scc, outcome,
		COALESCE(source, ''), COALESCE(method, ''), score, COALESCE(detail, ''), recorded_at
		FROM events `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var category, recorded string
		if err := rows.Scan(&e.RunID, &category, &e.ItemID, &e.SCC, &e.Outcome,
			&e.Source, &e.Method, &e.Score, &e.Detail, &recorded); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		c, err := models.ParseCategory(category)
		if err != nil {
			return nil, fmt.Errorf("event category: %w", err)
		}
		e.Category = c
		e.Recorded, _ = time.Parse(timeLayout, recorded)
		events = append(events, e)
	}
	return events, rows.Err()
}
