package consensus

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/llm"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

const isoDateLayout = "2006-01-02"

// Fallback card values used when the generative path fails.
const (
	fallbackDate          = "2025-05-15"
	fallbackDays          = 3
	fallbackWeekdaysRange = "Fri–Sun"
	fallbackAccommodation = 600
	fallbackTransport     = 200
	fallbackFlight        = 800
)

// CardBuilder produces the finalized consensus card for the single chosen
// candidate, repairing inconsistent or partial generative output against
// the summary's explicit dates.
type CardBuilder struct {
	llm    llm.Client
	logger *logger.Logger
}

// NewCardBuilder creates a new consensus card builder. A nil client means
// every card starts from the fixed fallback.
func NewCardBuilder(client llm.Client, log *logger.Logger) *CardBuilder {
	return &CardBuilder{llm: client, logger: log}
}

// generatedCard is the loosely-typed shape parsed from the generative
// output. Numeric fields are decoded as any so that malformed values are
// coerced during normalization instead of failing the whole card.
type generatedCard struct {
	Date                        string             `json:"date"`
	NoOfDays                    any                `json:"no_of_days"`
	WeekdaysRange               string             `json:"weekdays_range"`
	AccommodationCostPerPerson  any                `json:"accommodation_cost_per_person"`
	TransportationCostPerPerson any                `json:"transportation_cost_per_person"`
	FlightCostPerPerson         any                `json:"flight_cost_per_person"`
	Places                      []model.PlaceEntry `json:"places"`
	OriginPlace                 *string            `json:"origin_place"`
}

// Build produces the normalized consensus card for the chosen destination.
// It never returns nil and never returns an error: generative failures use
// the fixed fallback card, and a failure inside normalization itself
// returns the unnormalized card as-is.
func (b *CardBuilder) Build(ctx context.Context, chosen model.PlaceCandidate, summary *model.TravelSummary) *model.ConsensusCard {
	card := b.generate(ctx, chosen, summary)
	return b.normalize(card, chosen, summary)
}

func (b *CardBuilder) generate(ctx context.Context, chosen model.PlaceCandidate, summary *model.TravelSummary) *model.ConsensusCard {
	start := time.Now()
	var raw generatedCard
	err := llm.GenerateJSON(ctx, b.llm, llm.PromptSpec{
		Task: "Generate a finalized travel consensus card with realistic per-person cost estimates.",
		Rules: []string{
			"Base cost estimates on the destination and its budget category.",
			"date must be YYYY-MM-DD.",
			"weekdays_range is a span like Thu–Mon.",
		},
		Input: map[string]any{
			"destination":  chosen.PlaceName,
			"budget":       chosen.BudgetTier,
			"user_summary": summary,
		},
		Fields: []llm.SchemaField{
			{Name: "date", Type: "string", Required: true, Description: "Trip start date, YYYY-MM-DD"},
			{Name: "no_of_days", Type: "int", Required: true},
			{Name: "weekdays_range", Type: "string", Required: true},
			{Name: "accommodation_cost_per_person", Type: "int", Required: true},
			{Name: "transportation_cost_per_person", Type: "int", Required: true},
			{Name: "flight_cost_per_person", Type: "int", Required: true},
			{Name: "places", Type: "[]object", Required: true,
				Description: "entries with place (string), features (string), keywords ([]string)"},
		},
	}, &raw)
	if err == nil {
		metrics.RecordLLMCall("consensus_card", "success", time.Since(start).Seconds())
		return &model.ConsensusCard{
			Date:                        raw.Date,
			NoOfDays:                    coerceInt(raw.NoOfDays),
			WeekdaysRange:               raw.WeekdaysRange,
			AccommodationCostPerPerson:  coerceInt(raw.AccommodationCostPerPerson),
			TransportationCostPerPerson: coerceInt(raw.TransportationCostPerPerson),
			FlightCostPerPerson:         coerceInt(raw.FlightCostPerPerson),
			Places:                      raw.Places,
			OriginPlace:                 raw.OriginPlace,
		}
	}

	metrics.RecordLLMCall("consensus_card", "failure", time.Since(start).Seconds())
	metrics.RecordFallback("consensus_card")
	if !llm.IsCapabilityFailure(err) {
		b.logger.Error("consensus card generation failed unexpectedly", zap.Error(err))
	} else {
		b.logger.Warn("consensus card fell back to fixed defaults", zap.Error(err))
	}
	return b.fallbackCard(chosen, summary)
}

func (b *CardBuilder) fallbackCard(chosen model.PlaceCandidate, summary *model.TravelSummary) *model.ConsensusCard {
	date := fallbackDate
	if summary != nil && summary.StartDate != nil && *summary.StartDate != "" {
		date = *summary.StartDate
	}

	tags := []string{}
	if summary != nil {
		tags = summary.TravelPreferences
	}
	features := strings.Join(tags, ", ")
	keywords := tags
	if len(tags) == 0 {
		features = "sightseeing"
		keywords = []string{"landmarks"}
	}

	return &model.ConsensusCard{
		Date:                        date,
		NoOfDays:                    fallbackDays,
		WeekdaysRange:               fallbackWeekdaysRange,
		AccommodationCostPerPerson:  fallbackAccommodation,
		TransportationCostPerPerson: fallbackTransport,
		FlightCostPerPerson:         fallbackFlight,
		Places: []model.PlaceEntry{{
			Place:    chosen.PlaceName,
			Features: features,
			Keywords: keywords,
		}},
	}
}

// normalize repairs the card against the summary's explicit dates and the
// chosen candidate, and clamps all numeric fields. A panic inside
// normalization returns the pre-normalization card unchanged.
func (b *CardBuilder) normalize(card *model.ConsensusCard, chosen model.PlaceCandidate, summary *model.TravelSummary) (out *model.ConsensusCard) {
	out = card
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("card normalization failed, returning card as-is", zap.Any("panic", r))
			out = card
		}
	}()

	norm := *card
	norm.Places = append([]model.PlaceEntry(nil), card.Places...)

	// Explicit group dates always win over whatever the card says.
	if summary != nil && summary.StartDate != nil {
		if start, err := time.Parse(isoDateLayout, *summary.StartDate); err == nil {
			norm.Date = start.Format(isoDateLayout)

			var end time.Time
			haveEnd := false
			if summary.EndDate != nil {
				if e, err := time.Parse(isoDateLayout, *summary.EndDate); err == nil && !e.Before(start) {
					end = e
					haveEnd = true
				}
			}
			if haveEnd {
				// Inclusive day count: a Thu-Sun trip is 4 days.
				norm.NoOfDays = int(end.Sub(start).Hours()/24) + 1
			} else {
				days := card.NoOfDays
				if days < 1 {
					days = 1
				}
				norm.NoOfDays = days
				end = start.AddDate(0, 0, days-1)
			}
			norm.WeekdaysRange = weekdayAbbrev(start) + "–" + weekdayAbbrev(end)
		}
	}

	if len(norm.Places) == 0 {
		tags := []string{}
		if summary != nil {
			tags = summary.TravelPreferences
		}
		norm.Places = []model.PlaceEntry{{
			Place:    chosen.PlaceName,
			Features: strings.Join(tags, ", "),
			Keywords: tags,
		}}
	} else if norm.Places[0].Place == "" {
		norm.Places[0].Place = chosen.PlaceName
	}

	if norm.OriginPlace == nil && summary != nil && summary.OriginPlace != nil {
		v := *summary.OriginPlace
		norm.OriginPlace = &v
	}

	norm.AccommodationCostPerPerson = clampNonNegative(norm.AccommodationCostPerPerson)
	norm.TransportationCostPerPerson = clampNonNegative(norm.TransportationCostPerPerson)
	norm.FlightCostPerPerson = clampNonNegative(norm.FlightCostPerPerson)
	if norm.NoOfDays < 1 {
		norm.NoOfDays = 1
	}

	return &norm
}

func weekdayAbbrev(t time.Time) string {
	return t.Weekday().String()[:3]
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// coerceInt converts a loosely-typed JSON value to an int. Malformed or
// negative values become 0.
func coerceInt(v any) int {
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case int:
		n = x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			n = int(f)
		}
	default:
		n = 0
	}
	return clampNonNegative(n)
}
