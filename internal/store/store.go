// Package store provides SQLite-backed persistence for trips, trip
// messages, and per-trip consensus records.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// Store wraps the SQLite database handle.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an in-memory database.
func Open(path string, log *logger.Logger) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	s := &Store{db: db, logger: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			owner_id   TEXT NOT NULL,
			members    TEXT NOT NULL DEFAULT '[]',
			deleted    INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trip_messages (
			id         TEXT PRIMARY KEY,
			trip_id    TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			author     TEXT NOT NULL,
			text       TEXT NOT NULL,
			consumed   INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_messages_trip ON trip_messages(trip_id, id)`,
		`CREATE TABLE IF NOT EXISTS trip_consensus (
			trip_id                   TEXT PRIMARY KEY REFERENCES trips(id) ON DELETE CASCADE,
			status                    TEXT NOT NULL,
			iteration_count           INTEGER NOT NULL DEFAULT 0,
			summary                   TEXT,
			candidates                TEXT,
			consensus_card            TEXT,
			last_processed_message_id TEXT,
			error_detail              TEXT,
			created_at                TIMESTAMP NOT NULL,
			updated_at                TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_consensus_status ON trip_consensus(status)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}
