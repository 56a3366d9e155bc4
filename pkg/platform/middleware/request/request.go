package request

import (
	"net/http"

	"github.com/google/uuid"

	"alumport/pkg/requestcontext"
)

// Header carrying the correlation ID in and out of the service.
const HeaderRequestID = "X-Request-ID"

// RequestID attaches a correlation ID to every request. An inbound
// X-Request-ID is honored so IDs survive proxy hops; otherwise a fresh UUID
// is generated. The ID is echoed on the response for client-side correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
