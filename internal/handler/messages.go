package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripsync-ai/trip-planning-platform/internal/middleware"
	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/internal/service"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// MessageHandler handles trip message endpoints.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{service: svc, logger: log}
}

// Post handles POST /api/v1/trips/{id}/messages
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tripID := chi.URLParam(r, "id")

	if err := middleware.ValidateTripID(tripID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.Post(ctx, userID, tripID, &req)
	if err != nil {
		writeServiceError(w, err, "failed to post message")
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// List handles GET /api/v1/trips/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tripID := chi.URLParam(r, "id")

	if err := middleware.ValidateTripID(tripID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, offset := pagination(r, 50, 200)

	resp, err := h.service.List(ctx, userID, tripID, limit, offset)
	if err != nil {
		writeServiceError(w, err, "failed to list messages")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
