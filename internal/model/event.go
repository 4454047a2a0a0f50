package model

import (
	"time"
)

// EventType represents the type of trip event published to the event bus.
type EventType string

const (
	EventTypeMessageCreated   EventType = "trip.message.created"
	EventTypeConsensusUpdated EventType = "trip.consensus.updated"
)

// TripEvent is a best-effort notification emitted for downstream consumers
// (frontends, the post-consensus planning flow). Losing one is acceptable.
type TripEvent struct {
	ID        string          `json:"id"`
	TripID    string          `json:"trip_id"`
	Type      EventType       `json:"type"`
	Status    ConsensusStatus `json:"status,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
