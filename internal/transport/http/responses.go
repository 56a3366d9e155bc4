// Package httptransport is the HTTP layer of the admin API. Handlers decode
// and validate requests, delegate to domain services, and translate coded
// errors into JSON responses; business rules live in the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "alumport/pkg/domain-errors"
)

// errorBody is the JSON envelope every error response uses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded error into its HTTP response. Errors
// without a code become opaque 500s; internal messages never leak.
func WriteError(w http.ResponseWriter, err error) {
	var coded *dErrors.Error
	if !errors.As(err, &coded) {
		WriteJSON(w, http.StatusInternalServerError, errorBody{
			Error:   string(dErrors.CodeInternal),
			Message: "internal error",
		})
		return
	}

	message := coded.Message
	if coded.Code == dErrors.CodeInternal {
		message = "internal error"
	}
	WriteJSON(w, statusFor(coded.Code), errorBody{
		Error:   string(coded.Code),
		Message: message,
	})
}
