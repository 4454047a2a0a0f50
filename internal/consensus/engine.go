// Package consensus implements the multi-round consensus-convergence
// engine: it distills trip chat messages into structured preferences,
// generates and scores destination candidates, and converges on a single
// finalized consensus card within a bounded number of rounds.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/llm"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

// ErrNotFound is returned by a Store when a trip has no consensus record.
var ErrNotFound = errors.New("consensus: record not found")

// Store is the persistence boundary for per-trip consensus records.
type Store interface {
	LoadConsensus(ctx context.Context, tripID string) (*model.TripConsensusRecord, error)
	SaveConsensus(ctx context.Context, record *model.TripConsensusRecord) error
}

// DefaultMaxIterations is the number of message-processing rounds after
// which convergence is forced regardless of group agreement.
const DefaultMaxIterations = 3

// stage identifies a node of the consensus state machine.
type stage int

const (
	stageCheckMessages stage = iota
	stageSummarize
	stageSuggest
	stageSelect
	stageConsensus
	stageSave
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageCheckMessages:
		return "check_messages"
	case stageSummarize:
		return "summarizer"
	case stageSuggest:
		return "place_suggestion"
	case stageSelect:
		return "place_selection"
	case stageConsensus:
		return "consensus"
	case stageSave:
		return "save"
	default:
		return "done"
	}
}

// Engine sequences the pipeline components across repeated invocations,
// tracks the iteration count, and decides when a trip's consensus is done.
type Engine struct {
	extractor     *Extractor
	generator     *Generator
	enricher      *Enricher
	selector      *Selector
	builder       *CardBuilder
	store         Store
	maxIterations int
	logger        *logger.Logger
}

// NewEngine wires the consensus pipeline. client and photos may be nil
// (every component then runs its deterministic path); store may be nil
// (the save stage becomes a no-op and persistence is left to the caller).
func NewEngine(client llm.Client, photos PhotoFinder, store Store, maxIterations int, log *logger.Logger) *Engine {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Engine{
		extractor:     NewExtractor(client, log),
		generator:     NewGenerator(client, log),
		enricher:      NewEnricher(photos, log),
		selector:      NewSelector(log),
		builder:       NewCardBuilder(client, log),
		store:         store,
		maxIterations: maxIterations,
		logger:        log,
	}
}

// runState carries the per-invocation working set between stages.
type runState struct {
	record   *model.TripConsensusRecord
	messages []model.TripMessage
	texts    []string
	selected []model.PlaceCandidate
}

// Process runs one consensus invocation for a trip and returns the updated
// record. newMessages must already be filtered to those not yet consumed;
// prior may be nil on the first run.
//
// Process never panics across the boundary: any failure that escapes the
// per-stage fallbacks yields a record with StatusError and leaves the
// prior record's fields (and its persisted state) untouched.
func (e *Engine) Process(ctx context.Context, tripID string, newMessages []model.TripMessage, prior *model.TripConsensusRecord) (rec *model.TripConsensusRecord) {
	if prior == nil {
		prior = model.NewTripConsensusRecord(tripID)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("consensus run failed",
				zap.String("trip_id", tripID), zap.Any("panic", r))
			out := prior.Clone()
			out.Status = model.StatusError
			out.ErrorDetail = fmt.Sprint(r)
			metrics.RecordConsensusRun(string(model.StatusError), out.IterationCount, false)
			rec = out
		}
	}()

	st := &runState{
		record:   prior.Clone(),
		messages: newMessages,
	}

	for s := stageCheckMessages; s != stageDone; {
		next := e.step(ctx, s, st)
		e.logger.Debug("consensus stage complete",
			zap.String("trip_id", tripID),
			zap.String("stage", s.String()),
			zap.String("status", string(st.record.Status)),
		)
		s = next
	}

	return st.record
}

// step executes one stage and returns the next. Edges follow
// check_messages -> summarizer -> place_suggestion -> place_selection,
// then branch to consensus (single survivor or forced convergence) or
// straight to save.
func (e *Engine) step(ctx context.Context, s stage, st *runState) stage {
	rec := st.record

	switch s {
	case stageCheckMessages:
		if len(st.messages) == 0 {
			// Nothing new: short-circuit without touching iteration
			// count, summary, candidates, or card.
			rec.Status = model.StatusNoNewMessages
			metrics.RecordConsensusRun(string(rec.Status), rec.IterationCount, false)
			return stageDone
		}
		rec.Status = model.StatusProcessing
		rec.IterationCount++
		// A new batch reopens the decision: a card or error diagnostic
		// from an earlier round no longer describes this record. The card
		// is rebuilt if this run reaches the consensus stage.
		rec.ConsensusCard = nil
		rec.ErrorDetail = ""
		st.texts = make([]string, len(st.messages))
		for i, m := range st.messages {
			st.texts[i] = m.Text
		}
		lastID := st.messages[len(st.messages)-1].ID
		rec.LastProcessedMessageID = &lastID
		return stageSummarize

	case stageSummarize:
		rec.Summary = e.extractor.Extract(ctx, st.texts)
		return stageSuggest

	case stageSuggest:
		candidates := e.generator.Generate(ctx, rec.Summary)
		rec.Candidates = e.enricher.Enrich(ctx, candidates)
		return stageSelect

	case stageSelect:
		sel := e.selector.Select(rec.Candidates, rec.Summary, st.texts)
		st.selected = sel.Places
		rec.Status = sel.Status

		forced := rec.IterationCount >= e.maxIterations
		if len(st.selected) == 1 {
			return stageConsensus
		}
		if forced && (len(st.selected) > 0 || len(rec.Candidates) > 0) {
			e.logger.Info("forcing convergence",
				zap.String("trip_id", rec.TripID),
				zap.Int("iteration", rec.IterationCount),
			)
			return stageConsensus
		}
		return stageSave

	case stageConsensus:
		chosen := e.chooseFinal(st)
		rec.ConsensusCard = e.builder.Build(ctx, chosen, rec.Summary)
		rec.Status = model.StatusFinalized
		e.logger.Info("consensus finalized",
			zap.String("trip_id", rec.TripID),
			zap.String("destination", chosen.PlaceName),
			zap.Int("iteration", rec.IterationCount),
		)
		return stageSave

	case stageSave:
		rec.UpdatedAt = time.Now().UTC()
		if e.store != nil {
			// Best-effort: a failed save must not crash the run. The next
			// run may reprocess these messages, which is the accepted
			// degraded mode.
			if err := e.store.SaveConsensus(ctx, rec); err != nil {
				e.logger.Error("failed to save consensus record",
					zap.String("trip_id", rec.TripID), zap.Error(err))
			}
		}
		metrics.RecordConsensusRun(string(rec.Status), rec.IterationCount, rec.Status == model.StatusFinalized)
		return stageDone

	default:
		return stageDone
	}
}

// chooseFinal picks the destination for card-building: the selector's
// leader, or the first raw candidate when forced convergence fires on an
// empty selection.
func (e *Engine) chooseFinal(st *runState) model.PlaceCandidate {
	if len(st.selected) > 0 {
		return st.selected[0]
	}
	return st.record.Candidates[0]
}
