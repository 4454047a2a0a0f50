package consensus

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tripsync-ai/trip-planning-platform/internal/llm"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

const (
	minCandidates = 3
	maxCandidates = 5
)

// defaultPlaces seed the heuristic when the group hasn't named anywhere.
var defaultPlaces = []string{"Rome", "Paris", "Barcelona"}

var titleCaser = cases.Title(language.English)

// Generator produces 3-5 destination candidates for a travel summary.
// Each run regenerates the set from scratch; it never merges with the
// previous round's survivors.
type Generator struct {
	llm    llm.Client
	logger *logger.Logger
}

// NewGenerator creates a new candidate generator. A nil client disables
// the generative path.
func NewGenerator(client llm.Client, log *logger.Logger) *Generator {
	return &Generator{llm: client, logger: log}
}

type candidateSet struct {
	Candidates []model.PlaceCandidate `json:"candidates"`
}

// Generate proposes destination candidates for the summary.
func (g *Generator) Generate(ctx context.Context, summary *model.TravelSummary) []model.PlaceCandidate {
	start := time.Now()
	var set candidateSet
	err := llm.GenerateJSON(ctx, g.llm, llm.PromptSpec{
		Task: "Suggest 3-5 travel destinations matching the group's preferences.",
		Rules: []string{
			"Consider the group's budget, preferences, and any mentioned places.",
			"Include places the group already mentioned, plus alternatives.",
			"budget must be one of: budget, mid-range, luxury.",
		},
		Input: summary,
		Fields: []llm.SchemaField{
			{Name: "candidates", Type: "[]object", Required: true,
				Description: "3-5 entries with place_name (string), budget (string), best_time ([]string of months), why_it_matches ([]string)"},
		},
	}, &set)
	if err == nil && len(set.Candidates) > 0 {
		metrics.RecordLLMCall("place_suggestion", "success", time.Since(start).Seconds())
		if len(set.Candidates) > maxCandidates {
			set.Candidates = set.Candidates[:maxCandidates]
		}
		return set.Candidates
	}

	metrics.RecordLLMCall("place_suggestion", "failure", time.Since(start).Seconds())
	metrics.RecordFallback("place_suggestion")
	if err != nil && !llm.IsCapabilityFailure(err) {
		g.logger.Error("candidate generation failed unexpectedly", zap.Error(err))
	} else {
		g.logger.Warn("candidate generation fell back to heuristics", zap.Error(err))
	}
	return heuristicCandidates(summary)
}

// heuristicCandidates builds the fallback candidate set from the group's
// mentioned places, or the default triple when none were mentioned.
func heuristicCandidates(summary *model.TravelSummary) []model.PlaceCandidate {
	tier := model.TierMidRange
	if summary != nil && summary.BudgetMax != nil && *summary.BudgetMax >= 2000 {
		tier = model.TierLuxury
	}

	names := defaultPlaces
	if summary != nil && len(summary.PreferredPlaces) > 0 {
		preferred := summary.PreferredPlaces
		if len(preferred) > minCandidates {
			preferred = preferred[:minCandidates]
		}
		names = make([]string, len(preferred))
		for i, p := range preferred {
			names[i] = titleCaser.String(p)
		}
	}

	out := make([]model.PlaceCandidate, len(names))
	for i, name := range names {
		out[i] = model.PlaceCandidate{
			PlaceName:    name,
			BudgetTier:   tier,
			BestMonths:   []string{"May", "September"},
			WhyItMatches: []string{"Matches your preferences", "Popular destination"},
		}
	}
	return out
}
