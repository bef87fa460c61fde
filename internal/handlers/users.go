package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/request"
	"github.com/mglynn/habitflow/internal/validation"
)

const (
	// DefaultSearchLimit is the default number of user search results
	DefaultSearchLimit = 20
	// MaxSearchLimit is the maximum number of user search results
	MaxSearchLimit = 50
)

// UserSearcher finds users by display name prefix
type UserSearcher interface {
	SearchByDisplayNamePrefix(ctx context.Context, prefix string, limit int) ([]models.User, error)
}

// UserHandler handles user profile requests
type UserHandler struct {
	userRepo UserSearcher
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepo UserSearcher) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// RegisterRoutes registers user routes on the given router
// The router should already have the /users prefix
func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/search", h.SearchUsers).Methods("GET")
}

// SearchUsers finds users whose display name starts with the query,
// for picking friends to send requests to
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	query := validation.SanitizeText(r.URL.Query().Get("q"))
	if query == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Query parameter q is required")
		return
	}

	limit := DefaultSearchLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > MaxSearchLimit {
				limit = MaxSearchLimit
			} else {
				limit = parsed
			}
		}
	}

	users, err := h.userRepo.SearchByDisplayNamePrefix(r.Context(), query, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to search users")
		return
	}

	// Exclude the caller from their own results
	results := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != user.ID {
			results = append(results, u)
		}
	}

	respondJSON(w, http.StatusOK, results)
}
