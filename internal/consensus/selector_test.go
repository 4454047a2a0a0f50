package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

func candidate(name string) model.PlaceCandidate {
	return model.PlaceCandidate{
		PlaceName:    name,
		BudgetTier:   model.TierMidRange,
		BestMonths:   []string{"May"},
		WhyItMatches: []string{"Popular destination"},
	}
}

func TestSelectNoCandidates(t *testing.T) {
	s := NewSelector(logger.NewNop())

	sel := s.Select(nil, nil, nil)

	assert.Empty(t, sel.Places)
	assert.Equal(t, model.StatusNoCandidates, sel.Status)
}

func TestSelectSingleCandidateConverges(t *testing.T) {
	s := NewSelector(logger.NewNop())

	sel := s.Select([]model.PlaceCandidate{candidate("Lisbon")}, nil, nil)

	require.Len(t, sel.Places, 1)
	assert.Equal(t, "Lisbon", sel.Places[0].PlaceName)
	assert.Equal(t, model.StatusConverging, sel.Status)
}

func TestSelectStrongWinnerCollapses(t *testing.T) {
	s := NewSelector(logger.NewNop())
	candidates := []model.PlaceCandidate{
		candidate("Rome"), candidate("Paris"), candidate("Barcelona"),
	}

	// Rome is named directly: 1 base + 10 exact + 5 word = 16, the others
	// stay at 1, so the strong-winner rule fires.
	sel := s.Select(candidates, nil, []string{"rome is the one for us"})

	require.Len(t, sel.Places, 1)
	assert.Equal(t, "Rome", sel.Places[0].PlaceName)
	assert.Equal(t, model.StatusConverging, sel.Status)
}

func TestSelectTieKeepsTopTwo(t *testing.T) {
	s := NewSelector(logger.NewNop())
	candidates := []model.PlaceCandidate{
		candidate("Rome"), candidate("Paris"), candidate("Barcelona"),
	}

	sel := s.Select(candidates, nil, []string{"rome or paris, either works"})

	require.Len(t, sel.Places, 2)
	assert.Equal(t, "Rome", sel.Places[0].PlaceName)
	assert.Equal(t, "Paris", sel.Places[1].PlaceName)
	assert.Equal(t, model.StatusMultipleCandidates, sel.Status)
}

func TestSelectStrongSignalBreaksTie(t *testing.T) {
	s := NewSelector(logger.NewNop())
	candidates := []model.PlaceCandidate{
		candidate("Rome"), candidate("Paris"),
	}

	sel := s.Select(candidates, nil, []string{"let's go with rome over paris"})

	require.Len(t, sel.Places, 1)
	assert.Equal(t, "Rome", sel.Places[0].PlaceName)
	assert.Equal(t, model.StatusConverging, sel.Status)
}

func TestScoreCandidateSummarySignals(t *testing.T) {
	budget := 1500
	summary := &model.TravelSummary{
		PreferredPlaces:   []string{"rome"},
		TravelPreferences: []string{"food", "history"},
		BudgetMax:         &budget,
	}
	c := model.PlaceCandidate{
		PlaceName:    "Rome",
		BudgetTier:   model.TierMidRange,
		WhyItMatches: []string{"Great food scene", "Deep history"},
	}

	// 1 base + 8 preferred-place + 3 food + 3 history + 4 budget tier.
	assert.Equal(t, 19, scoreCandidate(c, "", summary))
}

func TestScoreCandidateIgnoresZeroBudget(t *testing.T) {
	zero := 0
	summary := &model.TravelSummary{BudgetMax: &zero}
	c := model.PlaceCandidate{PlaceName: "Rome", BudgetTier: model.TierBudget}

	assert.Equal(t, 1, scoreCandidate(c, "", summary))
}

func TestTierForBudget(t *testing.T) {
	assert.Equal(t, model.TierBudget, tierForBudget(999))
	assert.Equal(t, model.TierMidRange, tierForBudget(1000))
	assert.Equal(t, model.TierMidRange, tierForBudget(2500))
	assert.Equal(t, model.TierLuxury, tierForBudget(2501))
}

func TestHasStrongSignal(t *testing.T) {
	assert.True(t, hasStrongSignal("ok let's go with tokyo"))
	assert.True(t, hasStrongSignal("i prefer the beach option"))
	assert.False(t, hasStrongSignal("still thinking about it"))
}
