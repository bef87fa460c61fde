package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/request"
	"github.com/mglynn/habitflow/internal/state"
)

// TagHandler serves the derived tag summary. Tags are a pure
// projection over the habit collection and are never stored.
type TagHandler struct {
	sessions *state.Manager
	now      func() time.Time
}

// NewTagHandler creates a new tag handler
func NewTagHandler(sessions *state.Manager) *TagHandler {
	return &TagHandler{sessions: sessions, now: time.Now}
}

// RegisterRoutes registers tag routes on the given router
// The router should already have the /tags prefix
func (h *TagHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTags).Methods("GET")
}

// ListTags returns the distinct tags across the user's habits with
// per-tag habit counts
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	sess, err := h.sessions.ForUser(r.Context(), user.ID)
	if err != nil {
		respondStateError(w, err)
		return
	}

	var habits []models.Habit
	_ = sess.Do(func(c *state.Coordinator) error {
		habits = c.Habits()
		return nil
	})

	respondJSON(w, http.StatusOK, models.DeriveTags(habits))
}
