package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumport/internal/audit"
	"alumport/internal/platform/metrics"
	"alumport/internal/profile"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/requestcontext"
)

type authFixture struct {
	profiles *profile.MemoryStore
	sessions *MemorySessionStore
	auditLog *audit.MemoryStore
	service  *Service

	userID id.UserID
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		profiles: profile.NewMemoryStore(),
		sessions: NewMemorySessionStore(),
		auditLog: audit.NewMemoryStore(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(f.auditLog, audit.NewMetrics(prometheus.NewRegistry()), logger)

	f.service = NewService(
		f.profiles,
		f.sessions,
		NewJWTService("test-signing-key", "alumport-test"),
		recorder,
		metrics.New(prometheus.NewRegistry()),
		logger,
		15*time.Minute,
		24*time.Hour,
	)

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	f.userID = id.NewUserID()
	err = f.profiles.Create(context.Background(), profile.Profile{
		ID:           f.userID,
		Email:        "alice@example.org",
		FullName:     "Alice",
		Role:         profile.RoleAdmin,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	return f
}

func TestLogin_Succeeds(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.service.Login(ctx, "alice@example.org", "correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, f.userID, result.Profile.ID)

	// The token validates and carries identity, session, and role.
	claims, err := f.service.tokens.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, f.userID.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	sessionID, err := id.ParseSessionID(claims.SessionID)
	require.NoError(t, err)
	active, err := f.service.SessionActive(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, active)

	entries, err := f.auditLog.List(ctx, audit.Filter{Action: audit.ActionLogin})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, f.userID, *entries[0].ActorID)
}

func TestLogin_FailuresAreUniformAndAudited(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.Login(ctx, "alice@example.org", "nope")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err2 := f.service.Login(ctx, "nobody@example.org", "nope")
	assert.True(t, dErrors.HasCode(err2, dErrors.CodeUnauthorized))
	assert.Equal(t, err.Error(), err2.Error(), "unknown email and wrong password look identical")

	entries, listErr := f.auditLog.List(ctx, audit.Filter{Action: audit.ActionLoginFailed})
	require.NoError(t, listErr)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Nil(t, e.ActorID)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.service.Login(ctx, "alice@example.org", "correct horse battery staple")
	require.NoError(t, err)

	claims, err := f.service.tokens.ValidateToken(result.Token)
	require.NoError(t, err)
	sessionID, err := id.ParseSessionID(claims.SessionID)
	require.NoError(t, err)

	authedCtx := requestcontext.WithActor(ctx, f.userID, "admin")
	authedCtx = requestcontext.WithSessionID(authedCtx, sessionID)
	require.NoError(t, f.service.Logout(authedCtx))

	active, err := f.service.SessionActive(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, active, "token is dead after logout")

	entries, err := f.auditLog.List(ctx, audit.Filter{Action: audit.ActionLogout})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLogout_WithoutSession(t *testing.T) {
	f := newAuthFixture(t)
	err := f.service.Logout(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsForgedToken(t *testing.T) {
	trusted := NewJWTService("key-a", "alumport-test")
	forger := NewJWTService("key-b", "alumport-test")

	token, err := forger.GenerateAccessToken(id.NewUserID(), id.NewSessionID(), "admin", time.Minute)
	require.NoError(t, err)

	_, err = trusted.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("key", "alumport-test")

	token, err := svc.GenerateAccessToken(id.NewUserID(), id.NewSessionID(), "member", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "S3cret"))
}
