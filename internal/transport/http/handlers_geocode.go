package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"alumport/internal/geocode"
	dErrors "alumport/pkg/domain-errors"
)

// GeocodeService resolves addresses and coordinates, best effort.
type GeocodeService interface {
	Locate(ctx context.Context, address string) (geocode.Result, bool)
	Describe(ctx context.Context, lat, lon float64) (geocode.Result, bool)
}

type GeocodeHandler struct {
	geocoder GeocodeService
}

func NewGeocodeHandler(geocoder GeocodeService) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

func (h *GeocodeHandler) RegisterAuthed(r chi.Router) {
	r.Get("/geocode", h.forward)
	r.Get("/geocode/reverse", h.reverse)
}

func (h *GeocodeHandler) forward(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "address query parameter is required"))
		return
	}

	result, ok := h.geocoder.Locate(r.Context(), address)
	if !ok {
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "address could not be resolved"))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *GeocodeHandler) reverse(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "lat must be a number"))
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "lon must be a number"))
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "coordinates out of range"))
		return
	}

	result, ok := h.geocoder.Describe(r.Context(), lat, lon)
	if !ok {
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "no address at these coordinates"))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
