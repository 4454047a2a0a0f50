package service

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/events"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/internal/store"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

// MessageService handles trip chat messages.
type MessageService struct {
	store  *store.Store
	trips  *TripService
	events *events.Publisher
	logger *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(st *store.Store, trips *TripService, pub *events.Publisher, log *logger.Logger) *MessageService {
	return &MessageService{store: st, trips: trips, events: pub, logger: log}
}

// Post appends a message to a trip's conversation. The message ID is a
// ULID so IDs sort by creation time, which the consensus engine's
// last-processed watermark depends on.
func (s *MessageService) Post(ctx context.Context, userID, tripID string, req *model.PostMessageRequest) (*model.TripMessage, error) {
	if _, err := s.trips.Get(ctx, userID, tripID); err != nil {
		return nil, err
	}

	msg := &model.TripMessage{
		ID:        ulid.Make().String(),
		TripID:    tripID,
		Author:    userID,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	metrics.MessagesTotal.Inc()
	s.events.MessageCreated(tripID, msg.ID)
	s.logger.Debug("message posted",
		zap.String("trip_id", tripID), zap.String("message_id", msg.ID))
	return msg, nil
}

// List returns a trip's messages in creation order.
func (s *MessageService) List(ctx context.Context, userID, tripID string, limit, offset int) (*model.ListMessagesResponse, error) {
	if _, err := s.trips.Get(ctx, userID, tripID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	msgs, total, err := s.store.ListMessages(ctx, tripID, limit, offset)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.TripMessage{}
	}

	return &model.ListMessagesResponse{
		Messages: msgs,
		Total:    total,
		HasMore:  offset+len(msgs) < total,
	}, nil
}
