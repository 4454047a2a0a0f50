package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
)

// ErrTripNotFound is returned when a trip does not exist or is deleted.
var ErrTripNotFound = errors.New("store: trip not found")

// CreateTrip inserts a new trip.
func (s *Store) CreateTrip(ctx context.Context, trip *model.Trip) error {
	members, err := json.Marshal(trip.Members)
	if err != nil {
		return fmt.Errorf("store: encode members: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trips (id, name, owner_id, members, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.Name, trip.OwnerID, string(members), trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create trip: %w", err)
	}
	return nil
}

// GetTrip loads a trip by ID. Deleted trips report ErrTripNotFound.
func (s *Store) GetTrip(ctx context.Context, tripID string) (*model.Trip, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, members, created_at, updated_at,
		        (SELECT COUNT(*) FROM trip_messages WHERE trip_id = trips.id)
		 FROM trips WHERE id = ? AND deleted = 0`,
		tripID,
	)

	var trip model.Trip
	var members string
	err := row.Scan(&trip.ID, &trip.Name, &trip.OwnerID, &members,
		&trip.CreatedAt, &trip.UpdatedAt, &trip.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get trip: %w", err)
	}

	if err := json.Unmarshal([]byte(members), &trip.Members); err != nil {
		return nil, fmt.Errorf("store: decode members: %w", err)
	}
	return &trip, nil
}

// ListTrips returns trips owned by or shared with the user.
func (s *Store) ListTrips(ctx context.Context, userID string, limit, offset int) ([]model.Trip, int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, owner_id, members, created_at, updated_at
		 FROM trips
		 WHERE deleted = 0 AND (owner_id = ? OR members LIKE '%' || ? || '%')
		 ORDER BY updated_at DESC
		 LIMIT ? OFFSET ?`,
		userID, userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list trips: %w", err)
	}
	defer rows.Close()

	var trips []model.Trip
	for rows.Next() {
		var trip model.Trip
		var members string
		if err := rows.Scan(&trip.ID, &trip.Name, &trip.OwnerID, &members,
			&trip.CreatedAt, &trip.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("store: scan trip: %w", err)
		}
		if err := json.Unmarshal([]byte(members), &trip.Members); err != nil {
			return nil, 0, fmt.Errorf("store: decode members: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: list trips: %w", err)
	}

	var total int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trips
		 WHERE deleted = 0 AND (owner_id = ? OR members LIKE '%' || ? || '%')`,
		userID, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("store: count trips: %w", err)
	}

	return trips, total, nil
}

// UpdateTrip updates a trip's name and membership.
func (s *Store) UpdateTrip(ctx context.Context, trip *model.Trip) error {
	members, err := json.Marshal(trip.Members)
	if err != nil {
		return fmt.Errorf("store: encode members: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE trips SET name = ?, members = ?, updated_at = ? WHERE id = ? AND deleted = 0`,
		trip.Name, string(members), time.Now().UTC(), trip.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTripNotFound
	}
	return nil
}

// DeleteTrip soft-deletes a trip.
func (s *Store) DeleteTrip(ctx context.Context, tripID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trips SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		time.Now().UTC(), tripID,
	)
	if err != nil {
		return fmt.Errorf("store: delete trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTripNotFound
	}
	return nil
}
