package model

import (
	"time"
)

// ConsensusStatus is the processing status of a trip's consensus record.
type ConsensusStatus string

const (
	StatusProcessing         ConsensusStatus = "processing"
	StatusMultipleCandidates ConsensusStatus = "multiple_candidates"
	StatusConverging         ConsensusStatus = "converging"
	StatusFinalized          ConsensusStatus = "finalized"
	StatusNoCandidates       ConsensusStatus = "no_candidates"
	StatusNoNewMessages      ConsensusStatus = "no_new_messages"
	StatusError              ConsensusStatus = "error"
)

// BudgetTier is the budget category of a candidate destination.
type BudgetTier string

const (
	TierBudget   BudgetTier = "budget"
	TierMidRange BudgetTier = "mid-range"
	TierLuxury   BudgetTier = "luxury"
)

// TravelSummary is the structured preference summary extracted from the
// newest batch of trip messages. All scalar fields are nullable: absence
// means the group never stated the fact.
type TravelSummary struct {
	BudgetMin         *int     `json:"budget_min"`
	BudgetMax         *int     `json:"budget_max"`
	StartDate         *string  `json:"start_date"`
	EndDate           *string  `json:"end_date"`
	OriginPlace       *string  `json:"origin_place"`
	PreferredPlaces   []string `json:"preferred_places"`
	TravelPreferences []string `json:"travel_preferences"`
	MustHaves         []string `json:"must_haves"`
}

// PlaceCandidate is a proposed destination under consideration before
// convergence. Candidates are identified within a run by PlaceName only.
type PlaceCandidate struct {
	PlaceName    string     `json:"place_name"`
	BudgetTier   BudgetTier `json:"budget"`
	BestMonths   []string   `json:"best_time"`
	WhyItMatches []string   `json:"why_it_matches"`
	ImageURL     string     `json:"image_url,omitempty"`
}

// PlaceEntry is one destination entry on a finalized consensus card.
type PlaceEntry struct {
	Place    string   `json:"place"`
	Features string   `json:"features"`
	Keywords []string `json:"keywords"`
}

// ConsensusCard is the finalized structured trip summary, produced once
// the group has converged on a single destination.
type ConsensusCard struct {
	Date                        string       `json:"date"`
	NoOfDays                    int          `json:"no_of_days"`
	WeekdaysRange               string       `json:"weekdays_range"`
	AccommodationCostPerPerson  int          `json:"accommodation_cost_per_person"`
	TransportationCostPerPerson int          `json:"transportation_cost_per_person"`
	FlightCostPerPerson         int          `json:"flight_cost_per_person"`
	Places                      []PlaceEntry `json:"places"`
	OriginPlace                 *string      `json:"origin_place,omitempty"`
}

// TripConsensusRecord is the per-trip consensus state, keyed by trip ID.
// It is created lazily on the first consensus run and updated in place by
// every subsequent run; it is never recreated.
type TripConsensusRecord struct {
	TripID                 string           `json:"trip_id"`
	Status                 ConsensusStatus  `json:"status"`
	IterationCount         int              `json:"iteration_count"`
	Summary                *TravelSummary   `json:"summary,omitempty"`
	Candidates             []PlaceCandidate `json:"candidates,omitempty"`
	ConsensusCard          *ConsensusCard   `json:"consensus_card,omitempty"`
	LastProcessedMessageID *string          `json:"last_processed_message_id,omitempty"`
	ErrorDetail            string           `json:"error_detail,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// NewTripConsensusRecord returns the initial record for a trip.
func NewTripConsensusRecord(tripID string) *TripConsensusRecord {
	now := time.Now().UTC()
	return &TripConsensusRecord{
		TripID:         tripID,
		Status:         StatusProcessing,
		IterationCount: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy of the record. The consensus engine mutates a
// copy so the caller's record stays at its last good state if a run fails.
func (r *TripConsensusRecord) Clone() *TripConsensusRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Summary != nil {
		s := *r.Summary
		s.PreferredPlaces = append([]string(nil), r.Summary.PreferredPlaces...)
		s.TravelPreferences = append([]string(nil), r.Summary.TravelPreferences...)
		s.MustHaves = append([]string(nil), r.Summary.MustHaves...)
		if r.Summary.BudgetMin != nil {
			v := *r.Summary.BudgetMin
			s.BudgetMin = &v
		}
		if r.Summary.BudgetMax != nil {
			v := *r.Summary.BudgetMax
			s.BudgetMax = &v
		}
		if r.Summary.StartDate != nil {
			v := *r.Summary.StartDate
			s.StartDate = &v
		}
		if r.Summary.EndDate != nil {
			v := *r.Summary.EndDate
			s.EndDate = &v
		}
		if r.Summary.OriginPlace != nil {
			v := *r.Summary.OriginPlace
			s.OriginPlace = &v
		}
		out.Summary = &s
	}
	if r.Candidates != nil {
		out.Candidates = make([]PlaceCandidate, len(r.Candidates))
		for i, c := range r.Candidates {
			c.BestMonths = append([]string(nil), c.BestMonths...)
			c.WhyItMatches = append([]string(nil), c.WhyItMatches...)
			out.Candidates[i] = c
		}
	}
	if r.ConsensusCard != nil {
		card := *r.ConsensusCard
		card.Places = make([]PlaceEntry, len(r.ConsensusCard.Places))
		for i, p := range r.ConsensusCard.Places {
			p.Keywords = append([]string(nil), p.Keywords...)
			card.Places[i] = p
		}
		if r.ConsensusCard.OriginPlace != nil {
			v := *r.ConsensusCard.OriginPlace
			card.OriginPlace = &v
		}
		out.ConsensusCard = &card
	}
	if r.LastProcessedMessageID != nil {
		v := *r.LastProcessedMessageID
		out.LastProcessedMessageID = &v
	}
	return &out
}
