package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mglynn/habitflow/internal/cache"
	"github.com/mglynn/habitflow/internal/database"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/progress"
	"github.com/mglynn/habitflow/internal/request"
	"go.uber.org/zap"
)

// FriendHandler handles friend-edge and friend-progress requests
type FriendHandler struct {
	friendRepo FriendStore
	habitRepo  database.HabitRepositoryInterface
	userRepo   UserLookup
	cache      *cache.ProgressCache
	logger     *zap.Logger
	now        func() time.Time
}

// FriendStore is the friend repository surface the handler needs
type FriendStore interface {
	database.FriendRepositoryInterface
	Create(ctx context.Context, edge *models.Friend) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.FriendStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserLookup resolves user profiles for friend listings
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// NewFriendHandler creates a new friend handler. progressCache may be
// nil; friend progress is then always computed synchronously.
func NewFriendHandler(
	friendRepo FriendStore,
	habitRepo database.HabitRepositoryInterface,
	userRepo UserLookup,
	progressCache *cache.ProgressCache,
	logger *zap.Logger,
) *FriendHandler {
	return &FriendHandler{
		friendRepo: friendRepo,
		habitRepo:  habitRepo,
		userRepo:   userRepo,
		cache:      progressCache,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterRoutes registers friend routes on the given router
// The router should already have the /friends prefix
func (h *FriendHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListFriends).Methods("GET")
	r.HandleFunc("", h.RequestFriend).Methods("POST")
	r.HandleFunc("/progress", h.GetFriendProgress).Methods("GET")
	r.HandleFunc("/{id}/accept", h.AcceptFriend).Methods("POST")
	r.HandleFunc("/{id}", h.RemoveFriend).Methods("DELETE")
}

// FriendRequestBody represents a friend request creation
type FriendRequestBody struct {
	FriendID uuid.UUID `json:"friendId"`
}

// FriendListEntry is one edge joined with the other user's profile
type FriendListEntry struct {
	Edge        models.Friend `json:"edge"`
	UserID      uuid.UUID     `json:"userId"`
	DisplayName string        `json:"displayName"`
	PhotoURL    *string       `json:"photoURL,omitempty"`
}

// ListFriends lists the user's friend edges. Outgoing edges carry any
// status; accepted inbound edges are included so a mutual friendship
// shows up for both sides even though accepting only flips one edge.
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	edges, err := h.collectEdges(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve friends")
		return
	}

	entries := make([]FriendListEntry, 0, len(edges))
	for _, edge := range edges {
		otherID := edge.FriendID
		if otherID == user.ID {
			otherID = edge.UserID
		}
		entry := FriendListEntry{Edge: edge, UserID: otherID}
		if other, err := h.userRepo.GetByID(ctx, otherID); err == nil {
			entry.DisplayName = other.DisplayName
			entry.PhotoURL = other.PhotoURL
		}
		entries = append(entries, entry)
	}

	respondJSON(w, http.StatusOK, entries)
}

// RequestFriend creates a pending outgoing friend edge
func (h *FriendHandler) RequestFriend(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req FriendRequestBody
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FriendID == uuid.Nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "friendId is required")
		return
	}
	if req.FriendID == user.ID {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Cannot befriend yourself")
		return
	}

	ctx := r.Context()
	if _, err := h.userRepo.GetByID(ctx, req.FriendID); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	}

	existing, err := h.friendRepo.FindEdge(ctx, user.ID, req.FriendID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to check existing request")
		return
	}
	if existing != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "Friend request already exists")
		return
	}

	edge := &models.Friend{
		ID:       uuid.New(),
		UserID:   user.ID,
		FriendID: req.FriendID,
		Status:   models.FriendStatusPending,
	}
	if err := h.friendRepo.Create(ctx, edge); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create friend request")
		return
	}

	h.logger.Info("friend_requested",
		zap.String("user_id", user.ID.String()),
		zap.String("friend_id", req.FriendID.String()),
	)
	respondJSON(w, http.StatusCreated, edge)
}

// AcceptFriend accepts an incoming friend request. The path ID is the
// requesting user; only the requester's edge flips to accepted, the
// accepter's own edge (if any) is untouched.
func (h *FriendHandler) AcceptFriend(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	requesterID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user ID")
		return
	}

	ctx := r.Context()
	edge, err := h.friendRepo.FindEdge(ctx, requesterID, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to look up friend request")
		return
	}
	if edge == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Friend request not found")
		return
	}
	if edge.Status == models.FriendStatusAccepted {
		respondJSON(w, http.StatusOK, edge)
		return
	}

	if err := h.friendRepo.UpdateStatus(ctx, edge.ID, models.FriendStatusAccepted); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to accept friend request")
		return
	}
	edge.Status = models.FriendStatusAccepted

	h.logger.Info("friend_accepted",
		zap.String("user_id", user.ID.String()),
		zap.String("requester_id", requesterID.String()),
	)
	respondJSON(w, http.StatusOK, edge)
}

// RemoveFriend deletes one friend edge by edge ID. Only an endpoint of
// the edge may remove it.
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	edgeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid friend ID")
		return
	}

	ctx := r.Context()
	edges, err := h.collectEdges(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve friends")
		return
	}

	var target *models.Friend
	for i := range edges {
		if edges[i].ID == edgeID {
			target = &edges[i]
			break
		}
	}
	if target == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Friend edge not found")
		return
	}

	if err := h.friendRepo.Delete(ctx, edgeID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to remove friend")
		return
	}

	h.logger.Info("friend_removed",
		zap.String("user_id", user.ID.String()),
		zap.String("edge_id", edgeID.String()),
	)
	respondJSON(w, http.StatusOK, map[string]any{"deleted": edgeID})
}

// GetFriendProgress returns the daily/weekly/monthly snapshot for each
// accepted friend, served from the cache when possible.
func (h *FriendHandler) GetFriendProgress(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	edges, err := h.collectEdges(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve friends")
		return
	}

	results := make([]models.FriendProgress, 0, len(edges))
	seen := make(map[uuid.UUID]bool)
	for _, edge := range edges {
		if edge.Status != models.FriendStatusAccepted {
			continue
		}
		friendID := edge.FriendID
		if friendID == user.ID {
			friendID = edge.UserID
		}
		if seen[friendID] {
			continue
		}
		seen[friendID] = true

		friend, err := h.userRepo.GetByID(ctx, friendID)
		if err != nil {
			continue
		}

		snap, err := h.snapshotFor(ctx, friendID)
		if err != nil {
			h.logger.Warn("friend_progress_failed",
				zap.String("friend_id", friendID.String()),
				zap.Error(err),
			)
			continue
		}

		results = append(results, models.FriendProgress{
			UserID:      friendID,
			DisplayName: friend.DisplayName,
			PhotoURL:    friend.PhotoURL,
			Daily:       snap.Daily,
			Weekly:      snap.Weekly,
			Monthly:     snap.Monthly,
		})
	}

	respondJSON(w, http.StatusOK, results)
}

// snapshotFor reads a user's snapshot through the cache, computing and
// backfilling it on a miss.
func (h *FriendHandler) snapshotFor(ctx context.Context, userID uuid.UUID) (progress.Snapshot, error) {
	if h.cache != nil {
		if snap, err := h.cache.Get(ctx, userID); err == nil && snap != nil {
			return *snap, nil
		}
	}

	habits, err := h.habitRepo.GetByUserID(ctx, userID)
	if err != nil {
		return progress.Snapshot{}, err
	}
	snap := progress.FriendSnapshot(h.now(), habits)

	if h.cache != nil {
		if err := h.cache.Set(ctx, userID, snap); err != nil {
			h.logger.Warn("snapshot_cache_write_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}
	return snap, nil
}

// collectEdges merges the user's own edges with accepted inbound edges,
// deduplicating by edge ID.
func (h *FriendHandler) collectEdges(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	own, err := h.friendRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	inbound, err := h.friendRepo.GetAcceptedInbound(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(own))
	edges := make([]models.Friend, 0, len(own)+len(inbound))
	for _, e := range own {
		seen[e.ID] = true
		edges = append(edges, e)
	}
	for _, e := range inbound {
		if !seen[e.ID] {
			edges = append(edges, e)
		}
	}
	return edges, nil
}
