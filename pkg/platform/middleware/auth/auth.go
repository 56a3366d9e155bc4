package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "alumport/pkg/domain"
	"alumport/pkg/requestcontext"
)

// TokenValidator validates bearer tokens and returns the claims they carry.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// SessionChecker reports whether the session behind a token is still active.
// Logout revokes the session, which must invalidate outstanding tokens.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID id.SessionID) (bool, error)
}

// Claims are the values the middleware expects from the token validator.
type Claims struct {
	UserID    string
	SessionID string
	Role      string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"message":%q}`, errCode, errDesc))
}

// RequireAuth validates the Authorization bearer token, confirms the session
// is still active, and injects the actor identity and role into the request
// context for downstream handlers and services.
func RequireAuth(validator TokenValidator, sessions SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			actorID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid token claims")
				return
			}
			sessionID, err := id.ParseSessionID(claims.SessionID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid token claims")
				return
			}

			if sessions != nil {
				active, err := sessions.SessionActive(ctx, sessionID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check session state",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusInternalServerError, "internal", "Failed to validate session")
					return
				}
				if !active {
					logger.WarnContext(ctx, "unauthorized access - session revoked",
						"session_id", sessionID,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Session has been revoked")
					return
				}
			}

			ctx = requestcontext.WithActor(ctx, actorID, claims.Role)
			ctx = requestcontext.WithSessionID(ctx, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
