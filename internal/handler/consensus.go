package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripsync-ai/trip-planning-platform/internal/middleware"
	"github.com/tripsync-ai/trip-planning-platform/internal/service"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// ConsensusHandler handles consensus endpoints.
type ConsensusHandler struct {
	service *service.ConsensusService
	logger  *logger.Logger
}

// NewConsensusHandler creates a new consensus handler.
func NewConsensusHandler(svc *service.ConsensusService, log *logger.Logger) *ConsensusHandler {
	return &ConsensusHandler{service: svc, logger: log}
}

// Run handles POST /api/v1/trips/{id}/consensus
//
// It triggers one consensus round over the trip's unprocessed messages
// and returns the updated record.
func (h *ConsensusHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tripID := chi.URLParam(r, "id")

	if err := middleware.ValidateTripID(tripID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.service.Run(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, err, "failed to run consensus")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Get handles GET /api/v1/trips/{id}/consensus
func (h *ConsensusHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tripID := chi.URLParam(r, "id")

	if err := middleware.ValidateTripID(tripID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.service.Get(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, err, "failed to load consensus record")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
