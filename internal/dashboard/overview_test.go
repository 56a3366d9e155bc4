package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumport/internal/deletion"
	"alumport/internal/platform/metrics"
	"alumport/internal/profile"
	id "alumport/pkg/domain"
)

// slowCountStore blocks the first CountByStatus until released, forcing the
// first refresh to overlap with a later one.
type slowCountStore struct {
	profile.Store
	release chan struct{}
	calls   atomic.Int64
}

func (s *slowCountStore) CountByStatus(ctx context.Context) (map[profile.VerificationStatus]int, error) {
	if s.calls.Add(1) == 1 {
		<-s.release
	}
	return s.Store.CountByStatus(ctx)
}

func seedProfiles(t *testing.T, store *profile.MemoryStore, statuses ...profile.VerificationStatus) {
	t.Helper()
	for _, status := range statuses {
		userID := id.NewUserID()
		err := store.Create(context.Background(), profile.Profile{
			ID:     userID,
			Email:  userID.String() + "@example.org",
			Role:   profile.RoleMember,
			Status: status,
		})
		require.NoError(t, err)
	}
}

func newOverviewService(profiles profile.Store, deletions deletion.Store) *Service {
	return NewService(profiles, deletions,
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestRefresh_CountsProfilesAndPendingDeletions(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedProfiles(t, profiles,
		profile.StatusVerified,
		profile.StatusVerified,
		profile.StatusUnverified,
		profile.StatusFlaggedNotAlumni,
	)

	deletions := deletion.NewMemoryStore()
	require.NoError(t, deletions.Create(context.Background(), deletion.Request{
		ID:     id.NewDeletionRequestID(),
		UserID: id.NewUserID(),
		Status: deletion.StatusPending,
	}))
	require.NoError(t, deletions.Create(context.Background(), deletion.Request{
		ID:     id.NewDeletionRequestID(),
		UserID: id.NewUserID(),
		Status: deletion.StatusDenied,
	}))

	svc := newOverviewService(profiles, deletions)
	overview, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, overview.TotalProfiles)
	assert.Equal(t, 2, overview.Verified)
	assert.Equal(t, 1, overview.Unverified)
	assert.Equal(t, 1, overview.Flagged)
	assert.Equal(t, 1, overview.PendingDeletions)
	assert.False(t, overview.GeneratedAt.IsZero())
}

func TestCurrent_LoadsOnceThenServesCache(t *testing.T) {
	profiles := profile.NewMemoryStore()
	seedProfiles(t, profiles, profile.StatusVerified)
	svc := newOverviewService(profiles, deletion.NewMemoryStore())

	first, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Verified)

	// A later write is invisible until the next refresh.
	seedProfiles(t, profiles, profile.StatusVerified)
	cached, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Verified)

	refreshed, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.Verified)
}

func TestRefresh_DiscardsStaleOverlappingReload(t *testing.T) {
	backing := profile.NewMemoryStore()
	seedProfiles(t, backing, profile.StatusUnverified)

	slow := &slowCountStore{Store: backing, release: make(chan struct{})}
	svc := newOverviewService(slow, deletion.NewMemoryStore())

	// Start a refresh that blocks inside its load.
	staleDone := make(chan Overview, 1)
	go func() {
		overview, err := svc.Refresh(context.Background())
		assert.NoError(t, err)
		staleDone <- overview
	}()

	// Wait for it to claim its generation, then run a newer refresh that
	// changes the data and completes while the first is still loading.
	require.Eventually(t, func() bool { return svc.generation.Load() == 1 },
		time.Second, time.Millisecond)
	seedProfiles(t, backing, profile.StatusVerified)

	freshOverview, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, freshOverview.TotalProfiles)

	// Let the stale refresh finish. Its result must be discarded in favor
	// of the newer snapshot already in place.
	close(slow.release)
	staleOverview := <-staleDone
	assert.Equal(t, 2, staleOverview.TotalProfiles, "stale refresh returns the kept snapshot")

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, current.TotalProfiles)
}
