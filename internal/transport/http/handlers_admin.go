package httptransport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"alumport/internal/audit"
	"alumport/internal/dashboard"
	id "alumport/pkg/domain"
	dErrors "alumport/pkg/domain-errors"
)

// ActivityLog reads the audit trail.
type ActivityLog interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error)
}

// OverviewService serves the dashboard snapshot.
type OverviewService interface {
	Current(ctx context.Context) (dashboard.Overview, error)
	Refresh(ctx context.Context) (dashboard.Overview, error)
}

// AdminHandler serves the dashboard overview and the activity log.
type AdminHandler struct {
	activity ActivityLog
	overview OverviewService
}

func NewAdminHandler(activity ActivityLog, overview OverviewService) *AdminHandler {
	return &AdminHandler{
		activity: activity,
		overview: overview,
	}
}

// RegisterAdmin mounts the admin read routes.
func (h *AdminHandler) RegisterAdmin(r chi.Router) {
	r.Get("/overview", h.handleOverview)
	r.Post("/overview/refresh", h.handleRefresh)
	r.Get("/activity", h.handleActivity)
}

func (h *AdminHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.overview.Current(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, overview)
}

func (h *AdminHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	overview, err := h.overview.Refresh(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, overview)
}

func (h *AdminHandler) handleActivity(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{Limit: 100}
	query := r.URL.Query()

	if raw := query.Get("actor_id"); raw != "" {
		actor, err := id.ParseUserID(raw)
		if err != nil {
			WriteError(w, err)
			return
		}
		filter.ActorID = &actor
	}
	if raw := query.Get("target_id"); raw != "" {
		target, err := id.ParseUserID(raw)
		if err != nil {
			WriteError(w, err)
			return
		}
		filter.TargetID = &target
	}
	if raw := query.Get("action"); raw != "" {
		filter.Action = audit.Action(raw)
		if !filter.Action.Valid() {
			WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown action"))
			return
		}
	}
	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "since must be RFC 3339"))
			return
		}
		filter.Since = since
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 1000 {
			WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 1000"))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.activity.List(r.Context(), filter)
	if err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list activity"))
		return
	}

	out := make([]ActivityEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toActivityEntryResponse(e))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"total":   len(out),
	})
}
