package admin

import (
	"log/slog"
	"net/http"
	"slices"

	"alumport/pkg/requestcontext"
)

// RequireRole gates a route group to actors holding one of the given roles.
// It assumes RequireAuth already ran; an empty role means no session and is
// rejected the same way as an insufficient one.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.ActorRole(ctx)
			if !slices.Contains(roles, role) {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					"role", role,
					"actor_id", requestcontext.ActorID(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","message":"insufficient role"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
