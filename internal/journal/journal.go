// Package journal provides embedded SQLite history for reconcile runs.
//
// The journal is an optional, append-mostly record of what the service
// did: one row per reconcile cycle and one row per pair outcome within
// it. The state snapshot answers "what is current"; the journal answers
// "what happened", which the history and stats commands read.
//
// The database runs in embedded mode with WAL so the CLI can read
// history while the service writes. Journal writes are best-effort:
// callers log and continue on failure, since losing a history row must
// never block publishing.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Run summarizes one reconcile cycle.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Matched    int
	Published  int
	Skipped    int
	Failed     int
}

// PairEvent records one pair's outcome within a run.
type PairEvent struct {
	ID      int64
	RunID   int64 // zero when recorded outside a cycle
	PairKey string
	Meeting string
	// Action is the pipeline outcome: created, updated, skipped, failed.
	Action string
	NoteID string
	// Error holds the failure description for failed actions.
	Error     string
	CreatedAt time.Time
}

// Stats aggregates the journal for the stats command.
type Stats struct {
	Runs    int
	Pairs   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Journal wraps the embedded database connection.
type Journal struct {
	conn *sql.DB
	path string
}

// Open creates a journal at the specified path, creating the parent
// directory and schema as needed.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// The caller MUST call Close() when done to ensure proper cleanup.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	j := &Journal{
		conn: conn,
		path: path,
	}

	// WAL keeps reads open while the service writes
	if _, err := j.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := j.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := j.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := j.initSchema(context.Background()); err != nil {
		_ = j.Close()
		return nil, err
	}

	return j, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}

	if _, err := j.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := j.conn.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}

	j.conn = nil
	return nil
}

// initSchema creates the tables and indexes. Idempotent.
func (j *Journal) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		scanned INTEGER NOT NULL DEFAULT 0,
		matched INTEGER NOT NULL DEFAULT 0,
		published INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS pair_events (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		pair_key TEXT NOT NULL,
		meeting TEXT NOT NULL,
		action TEXT NOT NULL,  -- created, updated, skipped, failed
		note_id TEXT,
		error TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_pair_events_pair ON pair_events(pair_key);
	CREATE INDEX IF NOT EXISTS idx_pair_events_run ON pair_events(run_id);
	CREATE INDEX IF NOT EXISTS idx_pair_events_action ON pair_events(action);
	`

	if _, err := j.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return nil
}

// RecordRun inserts a cycle summary and returns its id.
func (j *Journal) RecordRun(run Run) (int64, error) {
	return j.RecordRunContext(context.Background(), run)
}

// RecordRunContext inserts a cycle summary with context support.
func (j *Journal) RecordRunContext(ctx context.Context, run Run) (int64, error) {
	query := `
	INSERT INTO runs (started_at, finished_at, scanned, matched, published, skipped, failed)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := j.conn.ExecContext(ctx, query,
		run.StartedAt.Format(time.RFC3339),
		run.FinishedAt.Format(time.RFC3339),
		run.Scanned,
		run.Matched,
		run.Published,
		run.Skipped,
		run.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// RecordPairEvent inserts one pair outcome. A zero RunID is stored as
// NULL, for events recorded outside a cycle.
func (j *Journal) RecordPairEvent(ev PairEvent) error {
	return j.RecordPairEventContext(context.Background(), ev)
}

// RecordPairEventContext inserts one pair outcome with context support.
func (j *Journal) RecordPairEventContext(ctx context.Context, ev PairEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	var runID sql.NullInt64
	if ev.RunID != 0 {
		runID = sql.NullInt64{Int64: ev.RunID, Valid: true}
	}

	query := `
	INSERT INTO pair_events (run_id, pair_key, meeting, action, note_id, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.conn.ExecContext(ctx, query,
		runID,
		ev.PairKey,
		ev.Meeting,
		ev.Action,
		ev.NoteID,
		ev.Error,
		ev.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record pair event: %w", err)
	}

	return nil
}

// RecentRuns returns the newest cycle summaries, most recent first.
// A limit of 0 returns all runs.
func (j *Journal) RecentRuns(limit int) ([]Run, error) {
	return j.RecentRunsContext(context.Background(), limit)
}

// RecentRunsContext returns cycle summaries with context support.
func (j *Journal) RecentRunsContext(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, started_at, finished_at, scanned, matched, published, skipped, failed
	FROM runs
	ORDER BY id DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// PairHistory returns the newest events for one pair, most recent first.
// A limit of 0 returns all events.
func (j *Journal) PairHistory(pairKey string, limit int) ([]PairEvent, error) {
	return j.PairHistoryContext(context.Background(), pairKey, limit)
}

// PairHistoryContext returns pair events with context support.
func (j *Journal) PairHistoryContext(ctx context.Context, pairKey string, limit int) ([]PairEvent, error) {
	query := `
	SELECT id, run_id, pair_key, meeting, action, note_id, error, created_at
	FROM pair_events
	WHERE pair_key = ?
	ORDER BY id DESC
	`
	args := []interface{}{pairKey}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pair history: %w", err)
	}
	defer rows.Close()

	return scanPairEvents(rows)
}

// Stats aggregates run and event counts for the stats command.
func (j *Journal) Stats() (Stats, error) {
	return j.StatsContext(context.Background())
}

// StatsContext aggregates with context support.
func (j *Journal) StatsContext(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := j.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&stats.Runs); err != nil {
		return Stats{}, fmt.Errorf("failed to count runs: %w", err)
	}

	err := j.conn.QueryRowContext(ctx, "SELECT COUNT(DISTINCT pair_key) FROM pair_events").Scan(&stats.Pairs)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count pairs: %w", err)
	}

	rows, err := j.conn.QueryContext(ctx, "SELECT action, COUNT(*) FROM pair_events GROUP BY action")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan event count: %w", err)
		}
		switch action {
		case "created":
			stats.Created = count
		case "updated":
			stats.Updated = count
		case "skipped":
			stats.Skipped = count
		case "failed":
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("error iterating event counts: %w", err)
	}

	return stats, nil
}

// scanRuns is a helper to scan multiple runs from query results.
func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run

	for rows.Next() {
		var run Run
		var startedAt, finishedAt string

		err := rows.Scan(
			&run.ID,
			&startedAt,
			&finishedAt,
			&run.Scanned,
			&run.Matched,
			&run.Published,
			&run.Skipped,
			&run.Failed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			run.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339, finishedAt); err == nil {
			run.FinishedAt = t
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// scanPairEvents is a helper to scan multiple pair events from query
// results.
func scanPairEvents(rows *sql.Rows) ([]PairEvent, error) {
	var events []PairEvent

	for rows.Next() {
		var ev PairEvent
		var runID sql.NullInt64
		var noteID, errMsg sql.NullString
		var createdAt string

		err := rows.Scan(
			&ev.ID,
			&runID,
			&ev.PairKey,
			&ev.Meeting,
			&ev.Action,
			&noteID,
			&errMsg,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pair event: %w", err)
		}

		if runID.Valid {
			ev.RunID = runID.Int64
		}
		ev.NoteID = noteID.String
		ev.Error = errMsg.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			ev.CreatedAt = t
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pair events: %w", err)
	}

	return events, nil
}
