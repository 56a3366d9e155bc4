package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alumport/internal/profile"
	mwadmin "alumport/pkg/platform/middleware/admin"
	mwauth "alumport/pkg/platform/middleware/auth"
	"alumport/pkg/platform/middleware/metadata"
	"alumport/pkg/platform/middleware/request"
	"alumport/pkg/platform/middleware/requesttime"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Logger *slog.Logger

	TokenValidator mwauth.TokenValidator
	Sessions       mwauth.SessionChecker

	Auth         AuthService
	Accounts     RegistrationService
	Profiles     ProfileService
	Verification VerificationService
	Deletions    DeletionService
	Activity     ActivityLog
	Overview     OverviewService
	Geocode      GeocodeService

	// Health reports readiness; nil means always ready.
	Health func() error
}

// NewRouter assembles the full route tree.
//
// Three tiers: public (login, register, health, metrics), authenticated
// (directory, own profile, deletion requests), and /admin (verification
// workflow, deletion decisions, overview, activity log) which additionally
// requires the admin or coordinator role. Services re-check fine-grained
// permissions; the route tier is the coarse gate.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Accounts, cfg.Logger)
	profileHandler := NewProfileHandler(cfg.Profiles)
	verificationHandler := NewVerificationHandler(cfg.Verification)
	deletionHandler := NewDeletionHandler(cfg.Deletions)
	adminHandler := NewAdminHandler(cfg.Activity, cfg.Overview)
	geocodeHandler := NewGeocodeHandler(cfg.Geocode)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.RequestTime)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler.RegisterPublic(r)

	requireAuth := mwauth.RequireAuth(cfg.TokenValidator, cfg.Sessions, cfg.Logger)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		authHandler.RegisterAuthed(r)
		profileHandler.Register(r)
		deletionHandler.RegisterAuthed(r)
		geocodeHandler.RegisterAuthed(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(mwadmin.RequireRole(cfg.Logger,
			string(profile.RoleAdmin),
			string(profile.RoleCoordinator),
		))
		verificationHandler.RegisterAdmin(r)
		deletionHandler.RegisterAdmin(r)
		adminHandler.RegisterAdmin(r)
	})

	return r
}

func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
