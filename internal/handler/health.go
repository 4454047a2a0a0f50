package handler

import (
	"net/http"

	"github.com/tripsync-ai/trip-planning-platform/internal/events"
	"github.com/tripsync-ai/trip-planning-platform/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store  *store.Store
	events *events.Publisher
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st *store.Store, pub *events.Publisher) *HealthHandler {
	return &HealthHandler{store: st, events: pub}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	resp := map[string]string{"status": "ready"}
	// The event bus is optional; report its state without failing readiness.
	if h.events != nil && !h.events.IsConnected() {
		resp["events"] = "disconnected"
	}
	writeJSON(w, http.StatusOK, resp)
}
