package service

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/consensus"
	"github.com/tripsync-ai/trip-planning-platform/internal/events"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/internal/store"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// ConsensusService orchestrates consensus runs for trips. Runs for the
// same trip are serialized with a per-trip lock so two concurrent
// triggers cannot interleave their read-process-write cycles.
type ConsensusService struct {
	engine *consensus.Engine
	store  *store.Store
	trips  *TripService
	events *events.Publisher
	logger *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewConsensusService creates a new consensus service.
func NewConsensusService(engine *consensus.Engine, st *store.Store, trips *TripService, pub *events.Publisher, log *logger.Logger) *ConsensusService {
	return &ConsensusService{
		engine: engine,
		store:  st,
		trips:  trips,
		events: pub,
		logger: log,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Run executes one consensus round for the trip: load the prior record,
// fetch the unconsumed messages, run the engine, and mark the processed
// messages consumed. Messages posted mid-run are picked up next time.
func (s *ConsensusService) Run(ctx context.Context, userID, tripID string) (*model.TripConsensusRecord, error) {
	if _, err := s.trips.Get(ctx, userID, tripID); err != nil {
		return nil, err
	}

	lock := s.lockFor(tripID)
	lock.Lock()
	defer lock.Unlock()

	prior, err := s.store.LoadConsensus(ctx, tripID)
	if err != nil && !errors.Is(err, consensus.ErrNotFound) {
		return nil, err
	}

	msgs, err := s.store.ListUnconsumed(ctx, tripID)
	if err != nil {
		return nil, err
	}

	rec := s.engine.Process(ctx, tripID, msgs, prior)

	if len(msgs) > 0 && rec.Status != model.StatusError {
		last := lo.LastOrEmpty(msgs)
		if err := s.store.MarkConsumed(ctx, tripID, last.ID); err != nil {
			// Leaving messages unconsumed means the next run reprocesses
			// them, which converges to the same answer.
			s.logger.Error("failed to mark messages consumed",
				zap.String("trip_id", tripID), zap.Error(err))
		}
	}

	s.events.ConsensusUpdated(tripID, rec.Status)
	return rec, nil
}

// Get returns the trip's current consensus record without processing.
func (s *ConsensusService) Get(ctx context.Context, userID, tripID string) (*model.TripConsensusRecord, error) {
	if _, err := s.trips.Get(ctx, userID, tripID); err != nil {
		return nil, err
	}
	return s.store.LoadConsensus(ctx, tripID)
}

func (s *ConsensusService) lockFor(tripID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tripID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tripID] = l
	}
	return l
}
