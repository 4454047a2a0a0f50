package consensus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

func TestHeuristicSummaryExtractsPlacesAndPreferences(t *testing.T) {
	s := heuristicSummary("We want Italy for the food and history. Maybe Rome?")

	assert.Equal(t, []string{"italy", "rome"}, s.PreferredPlaces)
	assert.Equal(t, []string{"food", "history"}, s.TravelPreferences)
	assert.Empty(t, s.MustHaves)
	assert.Nil(t, s.BudgetMin)
	assert.Nil(t, s.StartDate)
}

func TestHeuristicSummaryBudgetAndDates(t *testing.T) {
	s := heuristicSummary("Let's do Italy in 2025-06-01 to 2025-06-10, budget 1500")

	require.NotNil(t, s.BudgetMin)
	require.NotNil(t, s.BudgetMax)
	assert.Equal(t, 1500, *s.BudgetMin)
	assert.Equal(t, 1500, *s.BudgetMax)

	require.NotNil(t, s.StartDate)
	require.NotNil(t, s.EndDate)
	assert.Equal(t, "2025-06-01", *s.StartDate)
	assert.Equal(t, "2025-06-10", *s.EndDate)

	assert.Equal(t, []string{"italy"}, s.PreferredPlaces)
}

func TestHeuristicSummaryDateDigitsAreNotBudgets(t *testing.T) {
	// The year inside an ISO date must not register as an amount.
	s := heuristicSummary("arriving 2025-06-01")

	assert.Nil(t, s.BudgetMin)
	assert.Nil(t, s.BudgetMax)
}

func TestHeuristicSummaryBudgetRange(t *testing.T) {
	s := heuristicSummary("somewhere between $800 and $2000 per person")

	require.NotNil(t, s.BudgetMin)
	require.NotNil(t, s.BudgetMax)
	assert.Equal(t, 800, *s.BudgetMin)
	assert.Equal(t, 2000, *s.BudgetMax)
}

func TestHeuristicSummaryOrigin(t *testing.T) {
	s := heuristicSummary("We are flying from delhi next month")

	require.NotNil(t, s.OriginPlace)
	assert.Equal(t, "DELHI", *s.OriginPlace)
}

func TestHeuristicSummaryEmptyBlob(t *testing.T) {
	s := heuristicSummary("")

	assert.Empty(t, s.PreferredPlaces)
	assert.Empty(t, s.TravelPreferences)
	assert.Empty(t, s.MustHaves)
	assert.Nil(t, s.BudgetMin)
	assert.Nil(t, s.BudgetMax)
	assert.Nil(t, s.StartDate)
	assert.Nil(t, s.OriginPlace)
}

func TestExtractFallsBackWithoutClient(t *testing.T) {
	e := NewExtractor(nil, logger.NewNop())

	s := e.Extract(context.Background(), []string{"Paris sounds great", "yes, museums!"})

	require.NotNil(t, s)
	assert.Equal(t, []string{"paris"}, s.PreferredPlaces)
	assert.Equal(t, []string{"museums"}, s.TravelPreferences)
}

func TestExtractIsDeterministic(t *testing.T) {
	e := NewExtractor(nil, logger.NewNop())
	texts := []string{"Tokyo in 2025-04-01, budget 3000, love food"}

	a := e.Extract(context.Background(), texts)
	b := e.Extract(context.Background(), texts)

	assert.Equal(t, a, b)
}
