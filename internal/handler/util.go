package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tripsync-ai/trip-planning-platform/internal/consensus"
	"github.com/tripsync-ai/trip-planning-platform/internal/store"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps service-layer errors to HTTP responses. Missing
// trips and consensus records become 404s; anything else is a 500 with the
// given fallback message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrTripNotFound):
		writeError(w, http.StatusNotFound, "trip not found")
	case errors.Is(err, consensus.ErrNotFound):
		writeError(w, http.StatusNotFound, "no consensus record for trip")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
