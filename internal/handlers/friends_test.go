package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mglynn/habitflow/internal/models"
	"go.uber.org/zap"
)

// memFriendStore is an in-memory FriendStore for handler tests
type memFriendStore struct {
	edges []models.Friend
}

func (s *memFriendStore) Create(ctx context.Context, edge *models.Friend) error {
	s.edges = append(s.edges, *edge)
	return nil
}

func (s *memFriendStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	var out []models.Friend
	for _, e := range s.edges {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memFriendStore) GetAcceptedInbound(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	var out []models.Friend
	for _, e := range s.edges {
		if e.FriendID == userID && e.Status == models.FriendStatusAccepted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memFriendStore) FindEdge(ctx context.Context, userID, friendID uuid.UUID) (*models.Friend, error) {
	for i := range s.edges {
		if s.edges[i].UserID == userID && s.edges[i].FriendID == friendID {
			edge := s.edges[i]
			return &edge, nil
		}
	}
	return nil, nil
}

func (s *memFriendStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FriendStatus) error {
	for i := range s.edges {
		if s.edges[i].ID == id {
			s.edges[i].Status = status
			return nil
		}
	}
	return errors.New("edge not found")
}

func (s *memFriendStore) Delete(ctx context.Context, id uuid.UUID) error {
	for i := range s.edges {
		if s.edges[i].ID == id {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return errors.New("edge not found")
}

// memUserLookup resolves users from a fixed map
type memUserLookup struct {
	users map[uuid.UUID]models.User
}

func (s *memUserLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, errors.New("user not found")
}

type memHabitLookup struct {
	habits map[uuid.UUID][]models.Habit
}

func (s *memHabitLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	return nil, errors.New("not found")
}

func (s *memHabitLookup) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	return s.habits[userID], nil
}

func newFriendTestRouter(friends *memFriendStore, users *memUserLookup, habits *memHabitLookup) *mux.Router {
	if habits == nil {
		habits = &memHabitLookup{}
	}
	h := NewFriendHandler(friends, habits, users, nil, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/friends").Subrouter())
	return r
}

func doJSON(router *mux.Router, method, target string, payload any, user *models.User) *httptest.ResponseRecorder {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(method, target, body, user))
	return w
}

func TestRequestFriend(t *testing.T) {
	t.Parallel()

	alice := models.User{ID: uuid.New(), DisplayName: "Alice"}
	bob := models.User{ID: uuid.New(), DisplayName: "Bob"}
	friends := &memFriendStore{}
	users := &memUserLookup{users: map[uuid.UUID]models.User{alice.ID: alice, bob.ID: bob}}
	router := newFriendTestRouter(friends, users, nil)

	w := doJSON(router, "POST", "/friends", FriendRequestBody{FriendID: bob.ID}, &alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	if len(friends.edges) != 1 {
		t.Fatalf("Expected one edge, got %d", len(friends.edges))
	}
	edge := friends.edges[0]
	if edge.UserID != alice.ID || edge.FriendID != bob.ID {
		t.Errorf("Expected edge alice->bob, got %s->%s", edge.UserID, edge.FriendID)
	}
	if edge.Status != models.FriendStatusPending {
		t.Errorf("Expected pending status, got %s", edge.Status)
	}

	// A duplicate request conflicts
	w = doJSON(router, "POST", "/friends", FriendRequestBody{FriendID: bob.ID}, &alice)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on duplicate, got %d", w.Code)
	}

	// Befriending yourself is rejected
	w = doJSON(router, "POST", "/friends", FriendRequestBody{FriendID: alice.ID}, &alice)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 on self request, got %d", w.Code)
	}
}

func TestAcceptFriend_FlipsOnlyRequesterEdge(t *testing.T) {
	t.Parallel()

	alice := models.User{ID: uuid.New(), DisplayName: "Alice"}
	bob := models.User{ID: uuid.New(), DisplayName: "Bob"}

	// Both directions exist: alice requested bob, bob requested alice
	aliceEdge := models.Friend{ID: uuid.New(), UserID: alice.ID, FriendID: bob.ID, Status: models.FriendStatusPending}
	bobEdge := models.Friend{ID: uuid.New(), UserID: bob.ID, FriendID: alice.ID, Status: models.FriendStatusPending}
	friends := &memFriendStore{edges: []models.Friend{aliceEdge, bobEdge}}
	users := &memUserLookup{users: map[uuid.UUID]models.User{alice.ID: alice, bob.ID: bob}}
	router := newFriendTestRouter(friends, users, nil)

	// Bob accepts alice's request: only alice's outgoing edge flips
	w := doJSON(router, "POST", "/friends/"+alice.ID.String()+"/accept", nil, &bob)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	for _, e := range friends.edges {
		switch e.ID {
		case aliceEdge.ID:
			if e.Status != models.FriendStatusAccepted {
				t.Errorf("Expected requester edge accepted, got %s", e.Status)
			}
		case bobEdge.ID:
			if e.Status != models.FriendStatusPending {
				t.Errorf("Expected accepter's own edge untouched, got %s", e.Status)
			}
		}
	}
}

func TestListFriends_IncludesAcceptedInbound(t *testing.T) {
	t.Parallel()

	alice := models.User{ID: uuid.New(), DisplayName: "Alice"}
	bob := models.User{ID: uuid.New(), DisplayName: "Bob"}

	// Alice's request was accepted by bob; bob has no outgoing edge.
	// Bob's friend list must still include alice via the inbound edge.
	edge := models.Friend{ID: uuid.New(), UserID: alice.ID, FriendID: bob.ID, Status: models.FriendStatusAccepted}
	friends := &memFriendStore{edges: []models.Friend{edge}}
	users := &memUserLookup{users: map[uuid.UUID]models.User{alice.ID: alice, bob.ID: bob}}
	router := newFriendTestRouter(friends, users, nil)

	w := doJSON(router, "GET", "/friends", nil, &bob)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope responseEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	var entries []FriendListEntry
	if err := json.Unmarshal(envelope.Data, &entries); err != nil {
		t.Fatalf("Failed to decode entries: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected one friend entry, got %d", len(entries))
	}
	if entries[0].UserID != alice.ID {
		t.Errorf("Expected entry for alice, got %s", entries[0].UserID)
	}
	if entries[0].DisplayName != "Alice" {
		t.Errorf("Expected display name Alice, got %s", entries[0].DisplayName)
	}
}

func TestGetFriendProgress(t *testing.T) {
	t.Parallel()

	alice := models.User{ID: uuid.New(), DisplayName: "Alice"}
	bob := models.User{ID: uuid.New(), DisplayName: "Bob"}

	edge := models.Friend{ID: uuid.New(), UserID: alice.ID, FriendID: bob.ID, Status: models.FriendStatusAccepted}
	pending := models.Friend{ID: uuid.New(), UserID: alice.ID, FriendID: uuid.New(), Status: models.FriendStatusPending}
	friends := &memFriendStore{edges: []models.Friend{edge, pending}}
	users := &memUserLookup{users: map[uuid.UUID]models.User{alice.ID: alice, bob.ID: bob}}
	habits := &memHabitLookup{habits: map[uuid.UUID][]models.Habit{bob.ID: nil}}
	router := newFriendTestRouter(friends, users, habits)

	w := doJSON(router, "GET", "/friends/progress", nil, &alice)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope responseEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	var results []models.FriendProgress
	if err := json.Unmarshal(envelope.Data, &results); err != nil {
		t.Fatalf("Failed to decode results: %v", err)
	}

	// Only the accepted edge produces a progress entry; an empty habit
	// set resolves to all-zero percentages.
	if len(results) != 1 {
		t.Fatalf("Expected one progress entry, got %d", len(results))
	}
	if results[0].UserID != bob.ID {
		t.Errorf("Expected progress for bob, got %s", results[0].UserID)
	}
	if results[0].Daily != 0 || results[0].Weekly != 0 || results[0].Monthly != 0 {
		t.Errorf("Expected zero progress, got %+v", results[0])
	}
}

func TestRemoveFriend(t *testing.T) {
	t.Parallel()

	alice := models.User{ID: uuid.New(), DisplayName: "Alice"}
	bob := models.User{ID: uuid.New(), DisplayName: "Bob"}
	mallory := models.User{ID: uuid.New(), DisplayName: "Mallory"}

	edge := models.Friend{ID: uuid.New(), UserID: alice.ID, FriendID: bob.ID, Status: models.FriendStatusAccepted}
	friends := &memFriendStore{edges: []models.Friend{edge}}
	users := &memUserLookup{users: map[uuid.UUID]models.User{alice.ID: alice, bob.ID: bob, mallory.ID: mallory}}
	router := newFriendTestRouter(friends, users, nil)

	// A third party cannot remove an edge they are not part of
	w := doJSON(router, "DELETE", "/friends/"+edge.ID.String(), nil, &mallory)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for outsider, got %d", w.Code)
	}

	w = doJSON(router, "DELETE", "/friends/"+edge.ID.String(), nil, &alice)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(friends.edges) != 0 {
		t.Errorf("Expected edge to be deleted, %d remain", len(friends.edges))
	}
}
