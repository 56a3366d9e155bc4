package profile

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]Profile

	// PrivilegedUnavailable simulates a deployment where the
	// admin_set_verification procedure is missing, forcing callers onto the
	// direct-update fallback.
	PrivilegedUnavailable bool

	// FailSetVerification makes every verification write return this error.
	FailSetVerification error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[id.UserID]Profile)}
}

func (s *MemoryStore) Create(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return sentinel.ErrConflict
		}
	}

	if p.Status == "" {
		p.Status = StatusUnverified
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	s.profiles[p.ID] = p
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, userID id.UserID) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return Profile{}, sentinel.ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Profile
	for _, p := range s.profiles {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, userID id.UserID, update Update, now time.Time) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, sentinel.ErrNotFound
	}

	if update.FullName != nil {
		p.FullName = *update.FullName
	}
	if update.GraduationYear != nil {
		p.GraduationYear = *update.GraduationYear
	}
	if update.Degree != nil {
		p.Degree = *update.Degree
	}
	if update.Address != nil {
		p.Location.Address = *update.Address
	}
	if update.Lat != nil {
		p.Location.Lat = update.Lat
	}
	if update.Lon != nil {
		p.Location.Lon = update.Lon
	}
	if update.ClearCoords {
		p.Location.Lat = nil
		p.Location.Lon = nil
	}
	p.UpdatedAt = now

	s.profiles[userID] = p
	return p, nil
}

func (s *MemoryStore) SetVerification(_ context.Context, target id.UserID, status VerificationStatus, verifiedAt *time.Time, verifiedBy *id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSetVerification != nil {
		return s.FailSetVerification
	}

	p, ok := s.profiles[target]
	if !ok {
		return sentinel.ErrNotFound
	}

	p.Status = status
	p.VerifiedAt = verifiedAt
	p.VerifiedBy = verifiedBy
	p.UpdatedAt = time.Now()
	s.profiles[target] = p
	return nil
}

func (s *MemoryStore) SetVerificationPrivileged(ctx context.Context, target id.UserID, status VerificationStatus, verifiedAt *time.Time, verifiedBy *id.UserID) error {
	if s.PrivilegedUnavailable {
		return sentinel.ErrUnavailable
	}
	return s.SetVerification(ctx, target, status, verifiedAt, verifiedBy)
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[VerificationStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[VerificationStatus]int)
	for _, p := range s.profiles {
		counts[p.Status]++
	}
	return counts, nil
}
