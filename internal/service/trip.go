// Package service provides business logic for the trip-planning platform.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/internal/store"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

// TripService handles trip CRUD operations.
type TripService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewTripService creates a new trip service.
func NewTripService(st *store.Store, log *logger.Logger) *TripService {
	return &TripService{store: st, logger: log}
}

// Create creates a new trip owned by userID.
func (s *TripService) Create(ctx context.Context, userID string, req *model.CreateTripRequest) (*model.Trip, error) {
	now := time.Now().UTC()

	members := lo.Uniq(append([]string{userID}, req.Members...))
	trip := &model.Trip{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      req.Name,
		OwnerID:   userID,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}

	metrics.TripsTotal.Inc()
	s.logger.Info("trip created",
		zap.String("trip_id", trip.ID), zap.String("owner_id", userID))
	return trip, nil
}

// Get retrieves a trip the user is a member of.
func (s *TripService) Get(ctx context.Context, userID, tripID string) (*model.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !s.isMember(trip, userID) {
		return nil, store.ErrTripNotFound
	}
	return trip, nil
}

// List retrieves the user's trips.
func (s *TripService) List(ctx context.Context, userID string, limit, offset int) (*model.ListTripsResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	trips, total, err := s.store.ListTrips(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []model.Trip{}
	}

	return &model.ListTripsResponse{
		Trips:   trips,
		Total:   total,
		HasMore: offset+len(trips) < total,
	}, nil
}

// Update updates a trip's name or membership.
func (s *TripService) Update(ctx context.Context, userID, tripID string, req *model.UpdateTripRequest) (*model.Trip, error) {
	trip, err := s.Get(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		trip.Name = req.Name
	}
	if req.Members != nil {
		trip.Members = lo.Uniq(append([]string{trip.OwnerID}, req.Members...))
	}
	trip.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTrip(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// Delete soft-deletes a trip. Only the owner may delete.
func (s *TripService) Delete(ctx context.Context, userID, tripID string) error {
	trip, err := s.Get(ctx, userID, tripID)
	if err != nil {
		return err
	}
	if trip.OwnerID != userID {
		return fmt.Errorf("only the trip owner can delete it")
	}
	return s.store.DeleteTrip(ctx, tripID)
}

func (s *TripService) isMember(trip *model.Trip, userID string) bool {
	if trip.OwnerID == userID {
		return true
	}
	return lo.Contains(trip.Members, userID)
}
