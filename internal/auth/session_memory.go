package auth

import (
	"context"
	"sync"
	"time"

	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
)

// MemorySessionStore is an in-memory SessionStore for tests and local
// development.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[id.SessionID]Session)}
}

func (s *MemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) Find(_ context.Context, sessionID id.SessionID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok || time.Now().After(session.ExpiresAt) {
		return Session{}, sentinel.ErrNotFound
	}
	return session, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
