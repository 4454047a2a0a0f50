package consensus

import (
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// strongSignalPhrases mark explicit convergence intent in group messages.
// When one appears, user intent overrides the numeric scores.
var strongSignalPhrases = []string{
	"focus on", "let's go with", "prefer", "choose", "pick", "decide on",
}

// Selection is the outcome of one candidate-reduction round.
type Selection struct {
	Places []model.PlaceCandidate
	Status model.ConsensusStatus
}

// Selector scores candidates against the group's recent messages and
// summary preferences, reducing the set toward a single winner. It is a
// pure function of its inputs.
type Selector struct {
	logger *logger.Logger
}

// NewSelector creates a new candidate selector.
func NewSelector(log *logger.Logger) *Selector {
	return &Selector{logger: log}
}

// Select reduces the candidate set to 0, 1, or 2 places.
//
// A single candidate is always selected unconditionally. With more, each
// candidate is scored (see scoreCandidate) and the set collapses to the
// top candidate when it is a strong winner (top >= 2x runner-up and > 5),
// or when the messages carry an explicit convergence phrase. Otherwise the
// top two survive for further rounds.
func (s *Selector) Select(candidates []model.PlaceCandidate, summary *model.TravelSummary, texts []string) Selection {
	switch len(candidates) {
	case 0:
		return Selection{Places: nil, Status: model.StatusNoCandidates}
	case 1:
		return Selection{Places: candidates, Status: model.StatusConverging}
	}

	blob := strings.ToLower(strings.Join(texts, " "))

	type scored struct {
		candidate model.PlaceCandidate
		score     int
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{candidate: c, score: scoreCandidate(c, blob, summary)}
	}
	// Stable: ties keep generator order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	s.logger.Debug("candidates scored",
		zap.String("top", ranked[0].candidate.PlaceName),
		zap.Int("top_score", ranked[0].score),
		zap.Int("second_score", ranked[1].score),
	)

	if ranked[0].score >= 2*ranked[1].score && ranked[0].score > 5 {
		return Selection{
			Places: []model.PlaceCandidate{ranked[0].candidate},
			Status: model.StatusConverging,
		}
	}

	top2 := []model.PlaceCandidate{ranked[0].candidate, ranked[1].candidate}
	if hasStrongSignal(blob) {
		// Explicit group intent collapses the tie to the leader.
		return Selection{
			Places: top2[:1],
			Status: model.StatusConverging,
		}
	}
	return Selection{Places: top2, Status: model.StatusMultipleCandidates}
}

// scoreCandidate computes the convergence score for one candidate. The
// base value is 1 so a set with no signal at all never degenerates to
// all-zero ties.
func scoreCandidate(c model.PlaceCandidate, blob string, summary *model.TravelSummary) int {
	score := 1
	name := strings.ToLower(c.PlaceName)

	if name != "" && strings.Contains(blob, name) {
		score += 10
	}

	// Partial credit for multi-word names: "Rome, Italy" still scores
	// when only "rome" shows up.
	for _, word := range splitWords(name) {
		if len(word) > 3 && strings.Contains(blob, word) {
			score += 5
		}
	}

	if summary != nil {
		for _, place := range summary.PreferredPlaces {
			p := strings.ToLower(place)
			if p == "" {
				continue
			}
			if strings.Contains(name, p) || strings.Contains(p, name) {
				score += 8
			}
		}

		for _, tag := range summary.TravelPreferences {
			t := strings.ToLower(tag)
			if t == "" {
				continue
			}
			for _, why := range c.WhyItMatches {
				if strings.Contains(strings.ToLower(why), t) {
					score += 3
				}
			}
		}

		if summary.BudgetMax != nil && *summary.BudgetMax != 0 {
			if c.BudgetTier == tierForBudget(*summary.BudgetMax) {
				score += 4
			}
		}
	}

	return score
}

// tierForBudget maps a per-person budget ceiling to the tier it supports.
func tierForBudget(budgetMax int) model.BudgetTier {
	switch {
	case budgetMax < 1000:
		return model.TierBudget
	case budgetMax <= 2500:
		return model.TierMidRange
	default:
		return model.TierLuxury
	}
}

func hasStrongSignal(blob string) bool {
	for _, phrase := range strongSignalPhrases {
		if strings.Contains(blob, phrase) {
			return true
		}
	}
	return false
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
