package consensus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// memStore is an in-memory consensus store for engine tests.
type memStore struct {
	records map[string]*model.TripConsensusRecord
	saves   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*model.TripConsensusRecord)}
}

func (m *memStore) LoadConsensus(_ context.Context, tripID string) (*model.TripConsensusRecord, error) {
	rec, ok := m.records[tripID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *memStore) SaveConsensus(_ context.Context, rec *model.TripConsensusRecord) error {
	m.records[rec.TripID] = rec.Clone()
	m.saves++
	return nil
}

func msgs(texts ...string) []model.TripMessage {
	out := make([]model.TripMessage, len(texts))
	for i, text := range texts {
		out[i] = model.TripMessage{
			ID:     string(rune('a' + i)),
			TripID: "trip-1",
			Text:   text,
		}
	}
	return out
}

func newTestEngine(st Store) *Engine {
	return NewEngine(nil, nil, st, DefaultMaxIterations, logger.NewNop())
}

func TestProcessNoNewMessages(t *testing.T) {
	st := newMemStore()
	e := newTestEngine(st)

	rec := e.Process(context.Background(), "trip-1", nil, nil)

	assert.Equal(t, model.StatusNoNewMessages, rec.Status)
	assert.Equal(t, 0, rec.IterationCount)
	assert.Nil(t, rec.Summary)
	assert.Nil(t, rec.ConsensusCard)
	assert.Equal(t, 0, st.saves, "empty runs must not persist")
}

func TestProcessNoNewMessagesPreservesPriorState(t *testing.T) {
	e := newTestEngine(newMemStore())
	prior := model.NewTripConsensusRecord("trip-1")
	prior.Status = model.StatusMultipleCandidates
	prior.IterationCount = 2
	prior.Candidates = []model.PlaceCandidate{candidate("Rome"), candidate("Paris")}

	rec := e.Process(context.Background(), "trip-1", nil, prior)

	assert.Equal(t, model.StatusNoNewMessages, rec.Status)
	assert.Equal(t, 2, rec.IterationCount)
	assert.Len(t, rec.Candidates, 2)
	// The caller's record itself is untouched.
	assert.Equal(t, model.StatusMultipleCandidates, prior.Status)
}

func TestProcessSingleMentionFinalizesFirstRound(t *testing.T) {
	st := newMemStore()
	e := newTestEngine(st)

	rec := e.Process(context.Background(), "trip-1",
		msgs("Let's do Italy in 2025-06-01 to 2025-06-10, budget 1500"), nil)

	assert.Equal(t, model.StatusFinalized, rec.Status)
	assert.Equal(t, 1, rec.IterationCount)

	require.NotNil(t, rec.Summary)
	assert.Equal(t, []string{"italy"}, rec.Summary.PreferredPlaces)

	require.Len(t, rec.Candidates, 1)
	assert.Equal(t, "Italy", rec.Candidates[0].PlaceName)
	assert.NotEmpty(t, rec.Candidates[0].ImageURL)

	require.NotNil(t, rec.ConsensusCard)
	assert.Equal(t, "2025-06-01", rec.ConsensusCard.Date)
	assert.Equal(t, 10, rec.ConsensusCard.NoOfDays)
	assert.Equal(t, "Sun–Tue", rec.ConsensusCard.WeekdaysRange)

	require.NotNil(t, rec.LastProcessedMessageID)
	assert.Equal(t, 1, st.saves)
}

func TestProcessAmbiguousKeepsMultipleCandidates(t *testing.T) {
	e := newTestEngine(newMemStore())

	rec := e.Process(context.Background(), "trip-1",
		msgs("rome or paris, either works for me"), nil)

	assert.Equal(t, model.StatusMultipleCandidates, rec.Status)
	assert.Equal(t, 1, rec.IterationCount)
	assert.Len(t, rec.Candidates, 2)
	assert.Nil(t, rec.ConsensusCard)
}

func TestProcessStrongSignalFinalizes(t *testing.T) {
	e := newTestEngine(newMemStore())

	first := e.Process(context.Background(), "trip-1",
		msgs("rome or paris, either works for me"), nil)
	require.Equal(t, model.StatusMultipleCandidates, first.Status)

	second := e.Process(context.Background(), "trip-1",
		msgs("ok, let's go with rome, not paris"), first)

	assert.Equal(t, model.StatusFinalized, second.Status)
	assert.Equal(t, 2, second.IterationCount)
	require.NotNil(t, second.ConsensusCard)
	require.NotEmpty(t, second.ConsensusCard.Places)
	assert.Equal(t, "Rome", second.ConsensusCard.Places[0].Place)
}

func TestProcessForcesConvergence(t *testing.T) {
	e := newTestEngine(newMemStore())

	var rec *model.TripConsensusRecord
	for i := 0; i < DefaultMaxIterations; i++ {
		rec = e.Process(context.Background(), "trip-1",
			msgs("rome or paris, either works for me"), rec)
	}

	assert.Equal(t, model.StatusFinalized, rec.Status)
	assert.Equal(t, DefaultMaxIterations, rec.IterationCount)
	require.NotNil(t, rec.ConsensusCard)
}

func TestProcessIterationCountIsMonotonic(t *testing.T) {
	e := newTestEngine(newMemStore())

	rec := e.Process(context.Background(), "trip-1",
		msgs("rome or paris, either works for me"), nil)
	require.Equal(t, 1, rec.IterationCount)

	// An empty batch in between does not advance the count.
	rec = e.Process(context.Background(), "trip-1", nil, rec)
	require.Equal(t, 1, rec.IterationCount)

	rec = e.Process(context.Background(), "trip-1",
		msgs("still undecided between rome and paris"), rec)
	assert.Equal(t, 2, rec.IterationCount)
}

func TestProcessCardOnlyWhenFinalized(t *testing.T) {
	e := newTestEngine(newMemStore())

	rec := e.Process(context.Background(), "trip-1",
		msgs("rome or paris, either works for me"), nil)

	assert.NotEqual(t, model.StatusFinalized, rec.Status)
	assert.Nil(t, rec.ConsensusCard)
}

func TestProcessNewMessagesReopenFinalizedDecision(t *testing.T) {
	e := newTestEngine(newMemStore())

	first := e.Process(context.Background(), "trip-1", msgs("tokyo please"), nil)
	require.Equal(t, model.StatusFinalized, first.Status)
	require.NotNil(t, first.ConsensusCard)

	// The group reopens the question; the old card must not survive a
	// round that ends without a decision.
	second := e.Process(context.Background(), "trip-1",
		msgs("actually rome or paris, either works for me"), first)

	assert.Equal(t, model.StatusMultipleCandidates, second.Status)
	assert.Nil(t, second.ConsensusCard)
	assert.Equal(t, 2, second.IterationCount)

	// Converging again rebuilds the card from the new decision.
	third := e.Process(context.Background(), "trip-1",
		msgs("ok, let's go with rome, not paris"), second)
	require.Equal(t, model.StatusFinalized, third.Status)
	require.NotNil(t, third.ConsensusCard)
	assert.Equal(t, "Rome", third.ConsensusCard.Places[0].Place)
}

func TestProcessClearsStaleErrorDetail(t *testing.T) {
	e := newTestEngine(newMemStore())
	prior := model.NewTripConsensusRecord("trip-1")
	prior.Status = model.StatusError
	prior.ErrorDetail = "llm provider unreachable"

	rec := e.Process(context.Background(), "trip-1", msgs("tokyo please"), prior)

	assert.Equal(t, model.StatusFinalized, rec.Status)
	assert.Empty(t, rec.ErrorDetail)
}

func TestProcessTracksLastMessageID(t *testing.T) {
	e := newTestEngine(newMemStore())
	batch := msgs("thinking rome", "or maybe paris")

	rec := e.Process(context.Background(), "trip-1", batch, nil)

	require.NotNil(t, rec.LastProcessedMessageID)
	assert.Equal(t, batch[1].ID, *rec.LastProcessedMessageID)
}

func TestProcessWorksWithoutStore(t *testing.T) {
	e := NewEngine(nil, nil, nil, DefaultMaxIterations, logger.NewNop())

	rec := e.Process(context.Background(), "trip-1", msgs("tokyo please"), nil)

	assert.Equal(t, model.StatusFinalized, rec.Status)
}
