package store

import (
	"context"
	"fmt"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
)

// InsertMessage inserts a new trip message.
func (s *Store) InsertMessage(ctx context.Context, msg *model.TripMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trip_messages (id, trip_id, author, text, consumed, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		msg.ID, msg.TripID, msg.Author, msg.Text, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert message: %w", err)
	}
	return nil
}

// ListMessages returns a trip's messages in creation order.
func (s *Store) ListMessages(ctx context.Context, tripID string, limit, offset int) ([]model.TripMessage, int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, author, text, consumed, created_at
		 FROM trip_messages WHERE trip_id = ?
		 ORDER BY id ASC
		 LIMIT ? OFFSET ?`,
		tripID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list messages: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trip_messages WHERE trip_id = ?`, tripID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count messages: %w", err)
	}

	return msgs, total, nil
}

// ListUnconsumed returns a trip's messages not yet folded into its
// consensus record, in creation order.
func (s *Store) ListUnconsumed(ctx context.Context, tripID string) ([]model.TripMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, author, text, consumed, created_at
		 FROM trip_messages WHERE trip_id = ? AND consumed = 0
		 ORDER BY id ASC`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list unconsumed messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkConsumed marks all messages up to and including upToID as consumed.
// Message IDs are ULIDs, so the comparison is lexicographic.
func (s *Store) MarkConsumed(ctx context.Context, tripID, upToID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE trip_messages SET consumed = 1 WHERE trip_id = ? AND id <= ?`,
		tripID, upToID,
	)
	if err != nil {
		return fmt.Errorf("store: mark consumed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessages(rows rowScanner) ([]model.TripMessage, error) {
	var msgs []model.TripMessage
	for rows.Next() {
		var m model.TripMessage
		if err := rows.Scan(&m.ID, &m.TripID, &m.Author, &m.Text, &m.Consumed, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read messages: %w", err)
	}
	return msgs, nil
}
