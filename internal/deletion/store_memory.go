package deletion

import (
	"context"
	"sort"
	"sync"
	"time"

	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[id.DeletionRequestID]Request
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[id.DeletionRequestID]Request)}
}

func (s *MemoryStore) Create(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	if req.Status == "" {
		req.Status = StatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	s.requests[req.ID] = req
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, reqID id.DeletionRequestID) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[reqID]
	if !ok {
		return Request{}, sentinel.ErrNotFound
	}
	return req, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Request
	for _, req := range s.requests {
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) SetDecision(_ context.Context, reqID id.DeletionRequestID, status RequestStatus, decidedBy *id.UserID, decidedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[reqID]
	if !ok {
		return sentinel.ErrNotFound
	}

	req.Status = status
	req.DecidedBy = decidedBy
	req.DecidedAt = decidedAt
	s.requests[reqID] = req
	return nil
}
