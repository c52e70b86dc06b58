// Package store keeps the session log in an in-memory SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verte-zerg/bpmcheck/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// MemoryDSN opens a private in-memory database; nothing touches disk.
const MemoryDSN = ":memory:"

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens the database and applies migrations. Every pooled connection to
// :memory: would get its own empty database, so the pool is pinned to one.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			events INTEGER NOT NULL,
			peak_bpm REAL NOT NULL,
			average_bpm REAL NOT NULL,
			last_bpm REAL NOT NULL,
			end_reason TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_mode ON sessions(mode);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, mode, samples, events, peak_bpm, average_bpm, last_bpm, end_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Mode,
		stats.Samples,
		stats.Events,
		stats.PeakBPM,
		stats.AverageBPM,
		stats.LastBPM,
		string(stats.Reason),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSessions returns stored sessions oldest first.
func (s *Store) ListSessions(ctx context.Context) ([]model.SessionAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, mode, events, peak_bpm, average_bpm, end_reason
		FROM sessions
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var startedAt, endedAt, reason string
		if err := rows.Scan(&agg.SessionID, &startedAt, &endedAt, &agg.Mode, &agg.Events, &agg.PeakBPM, &agg.AverageBPM, &reason); err != nil {
			return nil, err
		}
		start, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		end, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ended_at: %w", err)
		}
		agg.EndedAt = end
		agg.DurationMs = end.Sub(start).Milliseconds()
		agg.Reason = model.EndReason(reason)
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// BestPeak returns the highest peak recorded for mode and how many sessions
// were recorded in that mode.
func (s *Store) BestPeak(ctx context.Context, mode int) (float64, int, error) {
	var best sql.NullFloat64
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(peak_bpm), COUNT(*) FROM sessions WHERE mode = ?`, mode,
	).Scan(&best, &count)
	if err != nil {
		return 0, 0, err
	}
	return best.Float64, count, nil
}
