// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tripsync-ai/trip-planning-platform/internal/middleware"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/internal/service"
	"github.com/tripsync-ai/trip-planning-platform/internal/store"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// TripHandler handles trip endpoints.
type TripHandler struct {
	service *service.TripService
	logger  *logger.Logger
}

// NewTripHandler creates a new trip handler.
func NewTripHandler(svc *service.TripService, log *logger.Logger) *TripHandler {
	return &TripHandler{service: svc, logger: log}
}

// Create handles POST /api/v1/trips
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTripName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trip, err := h.service.Create(ctx, userID, &req)
	if err != nil {
		h.logger.Error("failed to create trip")
		writeError(w, http.StatusInternalServerError, "failed to create trip")
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

// List handles GET /api/v1/trips
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit, offset := pagination(r, 20, 100)

	resp, err := h.service.List(ctx, userID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list trips")
		writeError(w, http.StatusInternalServerError, "failed to list trips")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/trips/{id}
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tripID := chi.URLParam(r, "id")

	if err := middleware.ValidateTripID(tripID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trip, err := h.service.Get(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, err, "failed to load trip")
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// Update handles PUT /api/v1/trips/{id}
func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tripID := chi.URLParam(r, "id")

	if err := middleware.ValidateTripID(tripID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != "" {
		if err := middleware.ValidateTripName(req.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	trip, err := h.service.Update(ctx, userID, tripID, &req)
	if err != nil {
		writeServiceError(w, err, "failed to update trip")
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// Delete handles DELETE /api/v1/trips/{id}
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tripID := chi.URLParam(r, "id")

	if err := middleware.ValidateTripID(tripID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(ctx, userID, tripID); err != nil {
		if errors.Is(err, store.ErrTripNotFound) {
			writeError(w, http.StatusNotFound, "trip not found")
			return
		}
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pagination parses limit/offset query parameters with bounds.
func pagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxLimit {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
