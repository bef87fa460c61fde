package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/progress"
	"github.com/mglynn/habitflow/internal/queue"
	"github.com/mglynn/habitflow/internal/request"
	"github.com/mglynn/habitflow/internal/state"
	"github.com/mglynn/habitflow/internal/validation"
	"github.com/mglynn/habitflow/internal/week"
	"go.uber.org/zap"
)

const (
	// MaxHabitNameLength is the maximum length for a habit name
	MaxHabitNameLength = 200
	// MaxDescriptionLength is the maximum length for a habit description
	MaxDescriptionLength = 2000
	// MaxTagsPerHabit is the maximum number of tags on one habit
	MaxTagsPerHabit = 20

	// refreshDebounce spaces out snapshot recomputes when a user is
	// clicking through several days in a row
	refreshDebounce = 30 * time.Second
)

// HabitHandler handles habit-related requests
type HabitHandler struct {
	sessions *state.Manager
	jobQueue queue.JobQueue
	logger   *zap.Logger
	now      func() time.Time
}

// NewHabitHandler creates a new habit handler. jobQueue may be nil when
// RabbitMQ is not configured; snapshot refreshes are then skipped.
func NewHabitHandler(sessions *state.Manager, jobQueue queue.JobQueue, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{
		sessions: sessions,
		jobQueue: jobQueue,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterRoutes registers habit routes on the given router
// The router should already have the /habits prefix
func (h *HabitHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListHabits).Methods("GET")
	r.HandleFunc("", h.CreateHabit).Methods("POST")
	r.HandleFunc("/progress", h.GetProgress).Methods("GET")
	r.HandleFunc("/reorder", h.ReorderHabits).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateHabit).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteHabit).Methods("DELETE")
	r.HandleFunc("/{id}/status", h.SetDayStatus).Methods("PUT")
}

// CreateHabitRequest represents a create habit request
type CreateHabitRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Frequency   string   `json:"frequency" validate:"required,frequency"`
	Target      int      `json:"target" validate:"required,min=1,max=7"`
	Tags        []string `json:"tags" validate:"max=20,dive,min=1,max=50"`
	Color       string   `json:"color"`
}

// UpdateHabitRequest represents a partial habit update
type UpdateHabitRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Frequency   *string   `json:"frequency,omitempty" validate:"omitempty,frequency"`
	Target      *int      `json:"target,omitempty" validate:"omitempty,min=1,max=7"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Color       *string   `json:"color,omitempty"`
}

// SetStatusRequest represents a day status change
type SetStatusRequest struct {
	Date   string `json:"date" validate:"required,ledger_date"`
	Status string `json:"status" validate:"required,day_status"`
}

// ReorderRequest represents a drag-and-drop reorder
type ReorderRequest struct {
	SourceID      uuid.UUID `json:"sourceId" validate:"required"`
	DestinationID uuid.UUID `json:"destinationId" validate:"required"`
}

// ProgressResponse is the computed completion report for a date range
type ProgressResponse struct {
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Overall   int               `json:"overall"`
	Weekly    int               `json:"weekly"`
	Habits    []HabitProgress   `json:"habits"`
	Category  *CategoryProgress `json:"category,omitempty"`
}

// HabitProgress is one habit's completion over the requested range
type HabitProgress struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Completion int       `json:"completion"`
}

// CategoryProgress is the completion for one tag's habits
type CategoryProgress struct {
	Tag        string `json:"tag"`
	Completion int    `json:"completion"`
}

// ListHabits lists the authenticated user's habits in display order
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
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
		c.SeedWeek(h.now())
		habits = c.Habits()
		return nil
	})

	respondJSON(w, http.StatusOK, habits)
}

// CreateHabit creates a new habit
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateHabitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}
	req.Description = validation.SanitizeText(req.Description)

	if req.Color != "" {
		if err := validation.ValidateHexColor(req.Color); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	sess, err := h.sessions.ForUser(r.Context(), user.ID)
	if err != nil {
		respondStateError(w, err)
		return
	}

	draft := models.Habit{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   models.Frequency(req.Frequency),
		Target:      req.Target,
		Tags:        req.Tags,
		Color:       req.Color,
	}

	var created models.Habit
	err = sess.Do(func(c *state.Coordinator) error {
		var doErr error
		created, doErr = c.Create(r.Context(), draft)
		return doErr
	})
	if err != nil {
		respondStateError(w, err)
		return
	}

	h.enqueueRefresh(r, user.ID, nil)
	respondJSON(w, http.StatusCreated, created)
}

// UpdateHabit applies a partial update to a habit
func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateHabitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	patch := models.HabitPatch{
		Description: req.Description,
		Target:      req.Target,
		Tags:        req.Tags,
	}
	if req.Name != nil {
		name := validation.SanitizeText(*req.Name)
		if name == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		patch.Name = &name
	}
	if req.Frequency != nil {
		freq := models.Frequency(*req.Frequency)
		patch.Frequency = &freq
	}
	if req.Color != nil {
		if *req.Color != "" {
			if err := validation.ValidateHexColor(*req.Color); err != nil {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
				return
			}
		}
		patch.Color = req.Color
	}

	sess, err := h.sessions.ForUser(r.Context(), user.ID)
	if err != nil {
		respondStateError(w, err)
		return
	}

	var updated models.Habit
	err = sess.Do(func(c *state.Coordinator) error {
		var doErr error
		updated, doErr = c.UpdateFields(r.Context(), id, patch)
		return doErr
	})
	if err != nil {
		respondStateError(w, err)
		return
	}

	h.enqueueRefresh(r, user.ID, &id)
	respondJSON(w, http.StatusOK, updated)
}

// DeleteHabit deletes a habit
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sess, err := h.sessions.ForUser(r.Context(), user.ID)
	if err != nil {
		respondStateError(w, err)
		return
	}

	err = sess.Do(func(c *state.Coordinator) error {
		return c.Delete(r.Context(), id)
	})
	if err != nil {
		respondStateError(w, err)
		return
	}

	h.enqueueRefresh(r, user.ID, nil)
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// SetDayStatus records a day's completion status on a habit's ledger
func (h *HabitHandler) SetDayStatus(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req SetStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	sess, err := h.sessions.ForUser(r.Context(), user.ID)
	if err != nil {
		respondStateError(w, err)
		return
	}

	var habits []models.Habit
	err = sess.Do(func(c *state.Coordinator) error {
		if doErr := c.SetStatus(r.Context(), id, req.Date, models.DayStatus(req.Status)); doErr != nil {
			return doErr
		}
		habits = c.Habits()
		return nil
	})
	if err != nil {
		respondStateError(w, err)
		return
	}

	h.enqueueRefresh(r, user.ID, &id)

	for _, habit := range habits {
		if habit.ID == id {
			respondJSON(w, http.StatusOK, habit)
			return
		}
	}
	respondJSON(w, http.StatusOK, nil)
}

// ReorderHabits moves a habit to another habit's position
func (h *HabitHandler) ReorderHabits(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SourceID == uuid.Nil || req.DestinationID == uuid.Nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "sourceId and destinationId are required")
		return
	}

	sess, err := h.sessions.ForUser(r.Context(), user.ID)
	if err != nil {
		respondStateError(w, err)
		return
	}

	var habits []models.Habit
	err = sess.Do(func(c *state.Coordinator) error {
		if doErr := c.Reorder(r.Context(), req.SourceID, req.DestinationID); doErr != nil {
			return doErr
		}
		habits = c.Habits()
		return nil
	})
	if err != nil {
		respondStateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, habits)
}

// GetProgress computes the completion report for a date range
func (h *HabitHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	start, end, err := validation.ParseDateRange(
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"),
		h.now(),
	)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
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

	rng := progress.NewDateRange(start, end)
	resp := ProgressResponse{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Overall:   progress.OverallCompletion(habits, rng),
		Weekly:    progress.WeeklyRollup(habits, week.Start(h.now())),
		Habits:    make([]HabitProgress, 0, len(habits)),
	}
	for _, habit := range habits {
		resp.Habits = append(resp.Habits, HabitProgress{
			ID:         habit.ID,
			Name:       habit.Name,
			Completion: progress.HabitCompletion(habit, rng),
		})
	}

	if tag := r.URL.Query().Get("tag"); tag != "" {
		resp.Category = &CategoryProgress{
			Tag:        tag,
			Completion: progress.CategoryCompletion(tag, habits, rng),
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// enqueueRefresh schedules a debounced snapshot recompute for the user.
// Failure to enqueue never fails the request; the cache TTL bounds
// staleness.
func (h *HabitHandler) enqueueRefresh(r *http.Request, userID uuid.UUID, habitID *uuid.UUID) {
	if h.jobQueue == nil {
		return
	}
	job := queue.NewJob(queue.JobTypeProgressRefresh, userID, habitID)
	notBefore := h.now().Add(refreshDebounce)
	job.NotBefore = &notBefore
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Warn("progress_refresh_enqueue_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

func validateRequest(w http.ResponseWriter, req any) bool {
	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return false
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid habit ID")
		return uuid.Nil, false
	}
	return id, true
}
