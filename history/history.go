// Package history logs one row per CLI invocation to a SQLite
// database: which file ran, when, how long it took, and whether it
// succeeded.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite-backed run-history log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the history database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		filename    TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		exit_code   INTEGER NOT NULL,
		error_kind  TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one recorded CLI invocation.
type Run struct {
	Filename  string
	StartedAt time.Time
	Duration  time.Duration
	ExitCode  int
	ErrorKind string // "" on success
}

// Record appends a row describing a finished run.
func (s *Store) Record(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (filename, started_at, duration_ms, exit_code, error_kind)
		 VALUES (?, ?, ?, ?, ?)`,
		r.Filename,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Duration.Milliseconds(),
		r.ExitCode,
		r.ErrorKind,
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns the n most recent runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT filename, started_at, duration_ms, exit_code, error_kind
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		var durationMs int64
		if err := rows.Scan(&r.Filename, &startedAt, &durationMs, &r.ExitCode, &r.ErrorKind); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("history: parse timestamp: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
