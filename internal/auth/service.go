package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"alumport/internal/audit"
	"alumport/internal/platform/metrics"
	"alumport/internal/profile"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/platform/sentinel"
	"alumport/pkg/requestcontext"
)

// LoginResult is what a successful sign-in returns to the client.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   profile.Profile
}

// Service implements sign-in and sign-out.
type Service struct {
	profiles   profile.Store
	sessions   SessionStore
	tokens     *JWTService
	audit      *audit.Recorder
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tokenTTL   time.Duration
	sessionTTL time.Duration
}

// NewService wires the auth workflow.
func NewService(
	profiles profile.Store,
	sessions SessionStore,
	tokens *JWTService,
	recorder *audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
	tokenTTL, sessionTTL time.Duration,
) *Service {
	return &Service{
		profiles:   profiles,
		sessions:   sessions,
		tokens:     tokens,
		audit:      recorder,
		metrics:    m,
		logger:     logger,
		tokenTTL:   tokenTTL,
		sessionTTL: sessionTTL,
	}
}

// Login verifies credentials and opens a session. Failures are deliberately
// uniform: the caller cannot tell an unknown email from a wrong password,
// but both land in the audit log as login_failed.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	p, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return LoginResult{}, s.loginFailed(ctx, email)
		}
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up account")
	}

	if !CheckPassword(p.PasswordHash, password) {
		return LoginResult{}, s.loginFailed(ctx, email)
	}

	now := requestcontext.Now(ctx)
	session := Session{
		ID:        id.NewSessionID(),
		UserID:    p.ID,
		Role:      string(p.Role),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "open session")
	}

	token, err := s.tokens.GenerateAccessToken(p.ID, session.ID, session.Role, s.tokenTTL)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}

	s.audit.LoginSucceeded(ctx, p.ID)
	s.metrics.Logins.Inc()

	return LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.tokenTTL),
		Profile:   p,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, email string) error {
	s.audit.LoginFailed(ctx, email)
	s.metrics.LoginFailures.Inc()
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// Logout revokes the session on the context. Tokens minted against it stop
// validating on the next request.
func (s *Service) Logout(ctx context.Context) error {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}

	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke session")
	}
	s.audit.LoggedOut(ctx)
	return nil
}

// SessionActive reports whether the session exists and has not expired.
// Satisfies the auth middleware's session checker.
func (s *Service) SessionActive(ctx context.Context, sessionID id.SessionID) (bool, error) {
	_, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
