package requesttime

import (
	"net/http"
	"time"

	"alumport/pkg/requestcontext"
)

// RequestTime pins a single observation time for the whole request. Services
// read it through requestcontext.Now, so denormalized timestamps written
// during one request (verifiedAt, decidedAt) agree with each other.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
