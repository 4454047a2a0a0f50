package consensus

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/llm"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

// Extractor turns a batch of raw message texts into a structured travel
// summary. It tries the generative path first and falls back to a
// deterministic heuristic; it never returns an error to the caller.
type Extractor struct {
	llm    llm.Client
	logger *logger.Logger
}

// NewExtractor creates a new summary extractor. A nil client disables the
// generative path.
func NewExtractor(client llm.Client, log *logger.Logger) *Extractor {
	return &Extractor{llm: client, logger: log}
}

// Extract summarizes the message texts into travel preferences.
func (e *Extractor) Extract(ctx context.Context, texts []string) *model.TravelSummary {
	blob := strings.Join(texts, "\n")

	start := time.Now()
	var summary model.TravelSummary
	err := llm.GenerateJSON(ctx, e.llm, llm.PromptSpec{
		Task: "Extract structured travel-planning information from group chat messages.",
		Rules: []string{
			"Only extract information that is explicitly stated in the messages.",
			"Never invent budgets, dates, or places.",
			"Dates must be in YYYY-MM-DD format.",
		},
		Input: map[string]string{"messages": blob},
		Fields: []llm.SchemaField{
			{Name: "budget_min", Type: "int|null", Description: "Minimum budget per person"},
			{Name: "budget_max", Type: "int|null", Description: "Maximum budget per person"},
			{Name: "start_date", Type: "string|null", Description: "Trip start date, YYYY-MM-DD"},
			{Name: "end_date", Type: "string|null", Description: "Trip end date, YYYY-MM-DD"},
			{Name: "origin_place", Type: "string|null", Description: "City the group travels from"},
			{Name: "preferred_places", Type: "[]string", Required: true, Description: "Destinations mentioned by the group"},
			{Name: "travel_preferences", Type: "[]string", Required: true, Description: "Preferences like food, history, nature"},
			{Name: "must_haves", Type: "[]string", Required: true, Description: "Hard requirements stated by the group"},
		},
	}, &summary)
	if err == nil {
		metrics.RecordLLMCall("summarizer", "success", time.Since(start).Seconds())
		normalizeSummary(&summary)
		return &summary
	}

	metrics.RecordLLMCall("summarizer", "failure", time.Since(start).Seconds())
	metrics.RecordFallback("summarizer")
	if !llm.IsCapabilityFailure(err) {
		e.logger.Error("summary extraction failed unexpectedly", zap.Error(err))
	} else {
		e.logger.Warn("summary extraction fell back to heuristics", zap.Error(err))
	}
	return heuristicSummary(blob)
}

func normalizeSummary(s *model.TravelSummary) {
	if s.PreferredPlaces == nil {
		s.PreferredPlaces = []string{}
	}
	if s.TravelPreferences == nil {
		s.TravelPreferences = []string{}
	}
	if s.MustHaves == nil {
		s.MustHaves = []string{}
	}
}

// placeGazetteer is the fixed set of place names the heuristic recognizes.
var placeGazetteer = []string{
	"italy", "rome", "florence", "paris", "london", "tokyo", "kyoto",
	"bali", "singapore", "new york", "barcelona", "amsterdam", "madrid",
	"berlin", "prague", "vienna", "budapest", "lisbon", "dublin",
}

// preferenceTags is the fixed preference vocabulary the heuristic scans for.
var preferenceTags = []string{
	"food", "history", "nature", "beach", "museums", "nightlife", "culture", "art",
}

// originCities are the cities recognized in "from <city>" phrases.
var originCities = []string{
	"delhi", "mumbai", "bangalore", "chennai", "hyderabad", "kolkata", "pune",
	"london", "new york", "san francisco", "singapore", "dubai", "tokyo",
	"paris", "berlin",
}

var (
	budgetTokenRE = regexp.MustCompile(`\b\$?(\d{3,5})\b`)
	isoDateRE     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

// heuristicSummary is the deterministic fallback extraction. It is a pure
// function of the text blob.
func heuristicSummary(blob string) *model.TravelSummary {
	lower := strings.ToLower(blob)

	places := []string{}
	for _, hint := range placeGazetteer {
		if strings.Contains(lower, hint) {
			places = append(places, hint)
		}
	}

	prefs := []string{}
	for _, hint := range preferenceTags {
		if strings.Contains(lower, hint) {
			prefs = append(prefs, hint)
		}
	}

	// Dates first: the date scan also keeps the year digits from being
	// mistaken for budget amounts.
	dates := isoDateRE.FindAllString(blob, -1)
	var startDate, endDate *string
	if len(dates) > 0 {
		startDate = &dates[0]
	}
	if len(dates) > 1 {
		endDate = &dates[1]
	}

	budgetBlob := isoDateRE.ReplaceAllString(blob, " ")
	var budgetMin, budgetMax *int
	for _, match := range budgetTokenRE.FindAllStringSubmatch(budgetBlob, -1) {
		amount := parseDigits(match[1])
		if budgetMin == nil || amount < *budgetMin {
			v := amount
			budgetMin = &v
		}
		if budgetMax == nil || amount > *budgetMax {
			v := amount
			budgetMax = &v
		}
	}

	var origin *string
	for _, city := range originCities {
		if strings.Contains(lower, "from "+city) {
			v := strings.ToUpper(city)
			origin = &v
			break
		}
	}

	return &model.TravelSummary{
		BudgetMin:         budgetMin,
		BudgetMax:         budgetMax,
		StartDate:         startDate,
		EndDate:           endDate,
		OriginPlace:       origin,
		PreferredPlaces:   places,
		TravelPreferences: prefs,
		// No heuristic signal exists for must-haves; the fallback leaves
		// them empty rather than guessing.
		MustHaves: []string{},
	}
}

func parseDigits(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
