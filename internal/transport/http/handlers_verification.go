package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"alumport/internal/profile"
	"alumport/internal/verification"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
)

// VerificationService is the slice of the verification workflow the
// handlers need.
type VerificationService interface {
	SetVerified(ctx context.Context, target id.UserID, verified bool) (profile.Profile, error)
	FlagNotAlumni(ctx context.Context, target id.UserID) (profile.Profile, error)
	UndoNotAlumni(ctx context.Context, target id.UserID) (profile.Profile, error)
	ListFlagged(ctx context.Context) ([]verification.FlaggedProfile, error)
}

// VerificationHandler serves the admin verification workflow.
type VerificationHandler struct {
	verification VerificationService
}

func NewVerificationHandler(svc VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: svc}
}

// RegisterAdmin mounts the verification routes. The router guards them with
// the admin/coordinator role middleware; the service re-checks per
// operation since flagging and verifying need different roles.
func (h *VerificationHandler) RegisterAdmin(r chi.Router) {
	r.Put("/profiles/{profileID}/verification", h.handleSetVerification)
	r.Post("/profiles/{profileID}/flag", h.handleFlag)
	r.Delete("/profiles/{profileID}/flag", h.handleUndoFlag)
	r.Get("/profiles/flagged", h.handleListFlagged)
}

type setVerificationRequest struct {
	Verified *bool `json:"verified"`
}

func (h *VerificationHandler) handleSetVerification(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseUserID(chi.URLParam(r, "profileID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var req setVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Verified == nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, `body must be {"verified": true|false}`))
		return
	}

	p, err := h.verification.SetVerified(r.Context(), target, *req.Verified)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *VerificationHandler) handleFlag(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseUserID(chi.URLParam(r, "profileID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.verification.FlagNotAlumni(r.Context(), target)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *VerificationHandler) handleUndoFlag(w http.ResponseWriter, r *http.Request) {
	target, err := id.ParseUserID(chi.URLParam(r, "profileID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.verification.UndoNotAlumni(r.Context(), target)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *VerificationHandler) handleListFlagged(w http.ResponseWriter, r *http.Request) {
	rows, err := h.verification.ListFlagged(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]FlaggedProfileResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toFlaggedProfileResponse(row))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"flagged": out,
		"total":   len(out),
	})
}
