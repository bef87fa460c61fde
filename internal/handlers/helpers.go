package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mglynn/habitflow/internal/state"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	sanitized := message
	if len(sanitized) > 200 {
		sanitized = sanitized[:200] + "..."
	}
	return sanitized
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondStateError maps coordinator errors onto HTTP statuses.
// Sync errors surface as 409 because the local collection was reloaded
// and the client should refetch before retrying.
func respondStateError(w http.ResponseWriter, err error) {
	var (
		validationErr  *state.ValidationError
		notFoundErr    *state.NotFoundError
		persistenceErr *state.PersistenceError
		syncErr        *state.SyncError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationErr.Error())
	case errors.As(err, &notFoundErr):
		respondJSONError(w, http.StatusNotFound, "Not Found", notFoundErr.Error())
	case errors.As(err, &persistenceErr):
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to persist change")
	case errors.As(err, &syncErr):
		respondJSONError(w, http.StatusConflict, "Conflict", "Change could not be synced; state was reloaded")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Unexpected error")
	}
}
