package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync-ai/trip-planning-platform/internal/consensus"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTrip(id string) *model.Trip {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Trip{
		ID:        id,
		Name:      "Summer trip",
		OwnerID:   "user-1",
		Members:   []string{"user-1", "user-2"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTripRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTrip(ctx, testTrip("trip-1")))

	got, err := s.GetTrip(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "Summer trip", got.Name)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, []string{"user-1", "user-2"}, got.Members)
	assert.Equal(t, 0, got.MessageCount)
}

func TestGetTripNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetTrip(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestDeleteTripHidesIt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTrip(ctx, testTrip("trip-1")))
	require.NoError(t, s.DeleteTrip(ctx, "trip-1"))

	_, err := s.GetTrip(ctx, "trip-1")
	assert.ErrorIs(t, err, ErrTripNotFound)

	// Deleting again reports not found.
	assert.ErrorIs(t, s.DeleteTrip(ctx, "trip-1"), ErrTripNotFound)
}

func TestUpdateTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	trip := testTrip("trip-1")
	require.NoError(t, s.CreateTrip(ctx, trip))

	trip.Name = "Winter trip"
	trip.Members = []string{"user-1"}
	require.NoError(t, s.UpdateTrip(ctx, trip))

	got, err := s.GetTrip(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "Winter trip", got.Name)
	assert.Equal(t, []string{"user-1"}, got.Members)
}

func TestListTripsByMembership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTrip(ctx, testTrip("trip-1")))
	other := testTrip("trip-2")
	other.OwnerID = "user-9"
	other.Members = []string{"user-9"}
	require.NoError(t, s.CreateTrip(ctx, other))

	trips, total, err := s.ListTrips(ctx, "user-2", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, trips, 1)
	assert.Equal(t, "trip-1", trips[0].ID)
}

func TestMessageConsumeWatermark(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTrip(ctx, testTrip("trip-1")))

	now := time.Now().UTC()
	for _, id := range []string{"01A", "01B", "01C"} {
		require.NoError(t, s.InsertMessage(ctx, &model.TripMessage{
			ID: id, TripID: "trip-1", Author: "user-1", Text: "hi " + id, CreatedAt: now,
		}))
	}

	unconsumed, err := s.ListUnconsumed(ctx, "trip-1")
	require.NoError(t, err)
	require.Len(t, unconsumed, 3)

	// ULID comparison is lexicographic, so everything up to 01B flips.
	require.NoError(t, s.MarkConsumed(ctx, "trip-1", "01B"))

	unconsumed, err = s.ListUnconsumed(ctx, "trip-1")
	require.NoError(t, err)
	require.Len(t, unconsumed, 1)
	assert.Equal(t, "01C", unconsumed[0].ID)
}

func TestListMessagesPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTrip(ctx, testTrip("trip-1")))
	now := time.Now().UTC()
	for _, id := range []string{"01A", "01B", "01C"} {
		require.NoError(t, s.InsertMessage(ctx, &model.TripMessage{
			ID: id, TripID: "trip-1", Author: "user-1", Text: "hi", CreatedAt: now,
		}))
	}

	msgs, total, err := s.ListMessages(ctx, "trip-1", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, msgs, 2)
	assert.Equal(t, "01B", msgs[0].ID)
	assert.Equal(t, "01C", msgs[1].ID)
}

func TestConsensusRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTrip(ctx, testTrip("trip-1")))

	_, err := s.LoadConsensus(ctx, "trip-1")
	assert.ErrorIs(t, err, consensus.ErrNotFound)

	budget := 1500
	lastID := "01B"
	rec := model.NewTripConsensusRecord("trip-1")
	rec.Status = model.StatusFinalized
	rec.IterationCount = 2
	rec.Summary = &model.TravelSummary{
		BudgetMax:         &budget,
		PreferredPlaces:   []string{"rome"},
		TravelPreferences: []string{"food"},
		MustHaves:         []string{},
	}
	rec.Candidates = []model.PlaceCandidate{{
		PlaceName:  "Rome",
		BudgetTier: model.TierMidRange,
	}}
	rec.ConsensusCard = &model.ConsensusCard{
		Date:          "2025-05-15",
		NoOfDays:      4,
		WeekdaysRange: "Thu–Sun",
		Places:        []model.PlaceEntry{{Place: "Rome", Keywords: []string{"food"}}},
	}
	rec.LastProcessedMessageID = &lastID

	require.NoError(t, s.SaveConsensus(ctx, rec))

	got, err := s.LoadConsensus(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFinalized, got.Status)
	assert.Equal(t, 2, got.IterationCount)
	require.NotNil(t, got.Summary)
	assert.Equal(t, []string{"rome"}, got.Summary.PreferredPlaces)
	require.Len(t, got.Candidates, 1)
	require.NotNil(t, got.ConsensusCard)
	assert.Equal(t, 4, got.ConsensusCard.NoOfDays)
	require.NotNil(t, got.LastProcessedMessageID)
	assert.Equal(t, "01B", *got.LastProcessedMessageID)
}

func TestConsensusUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTrip(ctx, testTrip("trip-1")))

	rec := model.NewTripConsensusRecord("trip-1")
	rec.Status = model.StatusMultipleCandidates
	rec.IterationCount = 1
	require.NoError(t, s.SaveConsensus(ctx, rec))

	rec.Status = model.StatusFinalized
	rec.IterationCount = 2
	require.NoError(t, s.SaveConsensus(ctx, rec))

	got, err := s.LoadConsensus(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFinalized, got.Status)
	assert.Equal(t, 2, got.IterationCount)
}
