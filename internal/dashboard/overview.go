// Package dashboard maintains the admin overview: aggregate counts that the
// change-feed listener refreshes and the API serves from memory.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"alumport/internal/deletion"
	"alumport/internal/platform/metrics"
	"alumport/internal/profile"
	dErrors "alumport/pkg/domain-errors"
)

// Overview is one snapshot of the aggregate counts.
type Overview struct {
	TotalProfiles    int       `json:"total_profiles"`
	Unverified       int       `json:"unverified"`
	Verified         int       `json:"verified"`
	Flagged          int       `json:"flagged"`
	PendingDeletions int       `json:"pending_deletions"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Service loads and caches the overview. Refreshes are generation-checked:
// when refreshes overlap, only the newest one's result is kept, so a slow
// reload can never overwrite a fresher snapshot.
type Service struct {
	profiles  profile.Store
	deletions deletion.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger

	generation atomic.Uint64

	mu      sync.RWMutex
	current Overview
	loaded  bool
}

// NewService wires the overview loader.
func NewService(profiles profile.Store, deletions deletion.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		profiles:  profiles,
		deletions: deletions,
		metrics:   m,
		logger:    logger,
	}
}

// Current returns the cached snapshot, loading it on first use.
func (s *Service) Current(ctx context.Context) (Overview, error) {
	s.mu.RLock()
	loaded := s.loaded
	current := s.current
	s.mu.RUnlock()

	if loaded {
		return current, nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads the counts. Started by the change-feed listener after a
// coalesced batch of table changes, and by Current on cold start.
func (s *Service) Refresh(ctx context.Context) (Overview, error) {
	gen := s.generation.Add(1)

	snapshot, err := s.load(ctx)
	if err != nil {
		return Overview{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer refresh started while this one was loading; its data may
	// already be in place or arriving shortly. Discard this result.
	if s.generation.Load() != gen {
		s.metrics.StaleReloadsDiscarded.Inc()
		s.logger.Debug("discarded stale overview reload")
		return s.current, nil
	}

	s.current = snapshot
	s.loaded = true
	s.metrics.DashboardRefreshes.Inc()
	return snapshot, nil
}

func (s *Service) load(ctx context.Context) (Overview, error) {
	counts, err := s.profiles.CountByStatus(ctx)
	if err != nil {
		return Overview{}, dErrors.Wrap(err, dErrors.CodeInternal, "count profiles")
	}

	pending, err := s.deletions.List(ctx, deletion.Filter{Status: deletion.StatusPending})
	if err != nil {
		return Overview{}, dErrors.Wrap(err, dErrors.CodeInternal, "count pending deletions")
	}

	overview := Overview{
		Unverified:       counts[profile.StatusUnverified],
		Verified:         counts[profile.StatusVerified],
		Flagged:          counts[profile.StatusFlaggedNotAlumni],
		PendingDeletions: len(pending),
		GeneratedAt:      time.Now(),
	}
	overview.TotalProfiles = overview.Unverified + overview.Verified + overview.Flagged
	return overview, nil
}
