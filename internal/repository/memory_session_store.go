package repository

import (
	"context"
	"sync"
	"time"

	"storydive/internal/models"
)

var _ SessionStore = (*memorySessionStore)(nil)

// memorySessionStore is a process-local SessionStore for tests and
// single-instance development runs.
type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionState
}

// NewMemorySessionStore creates an in-memory SessionStore.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]models.SessionState),
	}
}

func (s *memorySessionStore) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	copied := state
	copied.ActiveSystems = state.ActiveSystems.Clone()
	return &copied, nil
}

func (s *memorySessionStore) Put(ctx context.Context, state *models.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.UpdatedAt = time.Now().UTC()
	stored := *state
	stored.ActiveSystems = state.ActiveSystems.Clone()
	s.sessions[state.SessionID] = stored
	return nil
}

func (s *memorySessionStore) Evict(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
