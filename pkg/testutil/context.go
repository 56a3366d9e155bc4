package testutil

import (
	"net/http"
	"time"

	id "alumport/pkg/domain"
	"alumport/pkg/requestcontext"
)

// AsActor stamps the request context the way the auth middleware does after a
// successful token check. Handler tests use it to skip the login round trip.
func AsActor(req *http.Request, actor id.UserID, role string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), actor, role)
	return req.WithContext(ctx)
}

// WithSession attaches a session ID to the request context.
func WithSession(req *http.Request, sessionID id.SessionID) *http.Request {
	ctx := requestcontext.WithSessionID(req.Context(), sessionID)
	return req.WithContext(ctx)
}

// AtTime pins the request time so timestamp assertions are exact.
func AtTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

// WithClient attaches client metadata the way the metadata middleware does.
func WithClient(req *http.Request, ip, userAgent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, userAgent)
	return req.WithContext(ctx)
}
