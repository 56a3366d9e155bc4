package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"alumport/internal/deletion"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
)

// DeletionService is the slice of the deletion workflow the handlers need.
type DeletionService interface {
	Submit(ctx context.Context, reason string) (deletion.Request, error)
	Approve(ctx context.Context, reqID id.DeletionRequestID) (deletion.Request, error)
	Deny(ctx context.Context, reqID id.DeletionRequestID, reason string) (deletion.Request, error)
	UndoDecision(ctx context.Context, reqID id.DeletionRequestID) (deletion.Request, error)
	List(ctx context.Context, filter deletion.Filter) ([]deletion.Request, error)
	Mine(ctx context.Context) ([]deletion.Request, error)
}

// DeletionHandler serves the account-deletion workflow.
type DeletionHandler struct {
	deletions DeletionService
}

func NewDeletionHandler(deletions DeletionService) *DeletionHandler {
	return &DeletionHandler{deletions: deletions}
}

// RegisterAuthed mounts the member-facing routes.
func (h *DeletionHandler) RegisterAuthed(r chi.Router) {
	r.Post("/deletion-requests", h.handleSubmit)
	r.Get("/deletion-requests/mine", h.handleMine)
}

// RegisterAdmin mounts the admin decision routes.
func (h *DeletionHandler) RegisterAdmin(r chi.Router) {
	r.Get("/deletion-requests", h.handleList)
	r.Post("/deletion-requests/{requestID}/approve", h.handleApprove)
	r.Post("/deletion-requests/{requestID}/deny", h.handleDeny)
	r.Post("/deletion-requests/{requestID}/undo", h.handleUndo)
}

type submitDeletionRequest struct {
	Reason string `json:"reason"`
}

func (h *DeletionHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitDeletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.deletions.Submit(r.Context(), req.Reason)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toDeletionRequestResponse(created))
}

func (h *DeletionHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.deletions.Mine(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"requests": toDeletionRequestResponses(requests),
		"total":    len(requests),
	})
}

func (h *DeletionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := deletion.Filter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = deletion.RequestStatus(status)
		if !filter.Status.Valid() {
			WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown request status"))
			return
		}
	}

	requests, err := h.deletions.List(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"requests": toDeletionRequestResponses(requests),
		"total":    len(requests),
	})
}

func (h *DeletionHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reqID, err := id.ParseDeletionRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	decided, err := h.deletions.Approve(r.Context(), reqID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDeletionRequestResponse(decided))
}

type denyDeletionRequest struct {
	Reason string `json:"reason"`
}

func (h *DeletionHandler) handleDeny(w http.ResponseWriter, r *http.Request) {
	reqID, err := id.ParseDeletionRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var req denyDeletionRequest
	if r.Body != nil {
		// The reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	decided, err := h.deletions.Deny(r.Context(), reqID, req.Reason)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDeletionRequestResponse(decided))
}

func (h *DeletionHandler) handleUndo(w http.ResponseWriter, r *http.Request) {
	reqID, err := id.ParseDeletionRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	reverted, err := h.deletions.UndoDecision(r.Context(), reqID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDeletionRequestResponse(reverted))
}
