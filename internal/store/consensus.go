package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tripsync-ai/trip-planning-platform/internal/consensus"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
)

// LoadConsensus loads the consensus record for a trip. It returns
// consensus.ErrNotFound when the trip has never been processed.
func (s *Store) LoadConsensus(ctx context.Context, tripID string) (*model.TripConsensusRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT trip_id, status, iteration_count, summary, candidates,
		        consensus_card, last_processed_message_id, error_detail,
		        created_at, updated_at
		 FROM trip_consensus WHERE trip_id = ?`,
		tripID,
	)

	var rec model.TripConsensusRecord
	var summary, candidates, card, lastID, errDetail sql.NullString
	err := row.Scan(&rec.TripID, &rec.Status, &rec.IterationCount,
		&summary, &candidates, &card, &lastID, &errDetail,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, consensus.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load consensus: %w", err)
	}

	if summary.Valid && summary.String != "" {
		rec.Summary = &model.TravelSummary{}
		if err := json.Unmarshal([]byte(summary.String), rec.Summary); err != nil {
			return nil, fmt.Errorf("store: decode summary: %w", err)
		}
	}
	if candidates.Valid && candidates.String != "" {
		if err := json.Unmarshal([]byte(candidates.String), &rec.Candidates); err != nil {
			return nil, fmt.Errorf("store: decode candidates: %w", err)
		}
	}
	if card.Valid && card.String != "" {
		rec.ConsensusCard = &model.ConsensusCard{}
		if err := json.Unmarshal([]byte(card.String), rec.ConsensusCard); err != nil {
			return nil, fmt.Errorf("store: decode consensus card: %w", err)
		}
	}
	if lastID.Valid && lastID.String != "" {
		rec.LastProcessedMessageID = &lastID.String
	}
	if errDetail.Valid {
		rec.ErrorDetail = errDetail.String
	}

	return &rec, nil
}

// SaveConsensus upserts a trip's consensus record.
func (s *Store) SaveConsensus(ctx context.Context, rec *model.TripConsensusRecord) error {
	var summary, candidates, card, lastID any

	if rec.Summary != nil {
		b, err := json.Marshal(rec.Summary)
		if err != nil {
			return fmt.Errorf("store: encode summary: %w", err)
		}
		summary = string(b)
	}
	if rec.Candidates != nil {
		b, err := json.Marshal(rec.Candidates)
		if err != nil {
			return fmt.Errorf("store: encode candidates: %w", err)
		}
		candidates = string(b)
	}
	if rec.ConsensusCard != nil {
		b, err := json.Marshal(rec.ConsensusCard)
		if err != nil {
			return fmt.Errorf("store: encode consensus card: %w", err)
		}
		card = string(b)
	}
	if rec.LastProcessedMessageID != nil {
		lastID = *rec.LastProcessedMessageID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trip_consensus
		   (trip_id, status, iteration_count, summary, candidates,
		    consensus_card, last_processed_message_id, error_detail,
		    created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(trip_id) DO UPDATE SET
		   status = excluded.status,
		   iteration_count = excluded.iteration_count,
		   summary = excluded.summary,
		   candidates = excluded.candidates,
		   consensus_card = excluded.consensus_card,
		   last_processed_message_id = excluded.last_processed_message_id,
		   error_detail = excluded.error_detail,
		   updated_at = excluded.updated_at`,
		rec.TripID, rec.Status, rec.IterationCount, summary, candidates,
		card, lastID, rec.ErrorDetail, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: save consensus: %w", err)
	}
	return nil
}
