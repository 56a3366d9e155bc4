package auth

import (
	"context"
	"time"

	id "alumport/pkg/domain"
)

// Session is one signed-in browser session. Logout revokes it, which
// invalidates every token minted against it.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore persists sessions for the lifetime of a sign-in.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, sessionID id.SessionID) (Session, error)
	// Revoke removes the session. Revoking an unknown session is a no-op.
	Revoke(ctx context.Context, sessionID id.SessionID) error
}
