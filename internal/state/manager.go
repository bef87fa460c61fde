package state

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager hands out one Coordinator per user, loading the user's
// collection from the store on first sight. Each coordinator is the
// single writer of its collection; mutations within one user session
// are serialized by the coordinator's mutex.
type Manager struct {
	store    Store
	log      *zap.Logger
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// Session pairs a coordinator with the lock that serializes its
// mutations.
type Session struct {
	mu sync.Mutex
	c  *Coordinator
}

// Do runs fn with exclusive access to the session's coordinator
func (s *Session) Do(fn func(*Coordinator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.c)
}

// NewManager creates a session manager backed by the given store
func NewManager(store Store, log *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		log:      log,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// ForUser returns the user's session, creating it (and loading their
// habits) if this is the first request for that user.
func (m *Manager) ForUser(ctx context.Context, userID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	m.mu.Unlock()
	if ok {
		return sess, nil
	}

	habits, err := m.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have raced us here; keep the first session.
	if sess, ok := m.sessions[userID]; ok {
		return sess, nil
	}
	sess = &Session{c: NewCoordinator(m.store, m.log, userID, habits)}
	m.sessions[userID] = sess
	return sess, nil
}
