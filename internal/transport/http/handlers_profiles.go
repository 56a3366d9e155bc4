package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"alumport/internal/profile"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/requestcontext"
)

// ProfileService is the slice of the profile workflow the handlers need.
type ProfileService interface {
	Get(ctx context.Context, userID id.UserID) (profile.Profile, error)
	List(ctx context.Context, filter profile.Filter) ([]profile.Profile, error)
	UpdateProfile(ctx context.Context, target id.UserID, update profile.Update) (profile.Profile, error)
}

// ProfileHandler serves the member directory and profile edits.
type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Register mounts the profile routes; all of them require authentication.
func (h *ProfileHandler) Register(r chi.Router) {
	r.Get("/profiles", h.handleList)
	r.Get("/profiles/me", h.handleGetMe)
	r.Get("/profiles/{profileID}", h.handleGet)
	r.Patch("/profiles/{profileID}", h.handleUpdate)
}

func (h *ProfileHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := profile.Filter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = profile.VerificationStatus(status)
		if !filter.Status.Valid() {
			WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown verification status"))
			return
		}
	}
	if role := r.URL.Query().Get("role"); role != "" {
		filter.Role = profile.Role(role)
		if !filter.Role.Valid() {
			WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown role"))
			return
		}
	}

	profiles, err := h.profiles.List(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"profiles": toProfileResponses(profiles),
		"total":    len(profiles),
	})
}

func (h *ProfileHandler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.writeProfile(w, r, requestcontext.ActorID(ctx))
}

func (h *ProfileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "profileID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *ProfileHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID id.UserID) {
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

type updateProfileRequest struct {
	FullName       *string `json:"full_name"`
	GraduationYear *int    `json:"graduation_year"`
	Degree         *string `json:"degree"`
	Address        *string `json:"address"`
}

func (h *ProfileHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "profileID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := h.profiles.UpdateProfile(r.Context(), userID, profile.Update{
		FullName:       req.FullName,
		GraduationYear: req.GraduationYear,
		Degree:         req.Degree,
		Address:        req.Address,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfileResponse(p))
}
