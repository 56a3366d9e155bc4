package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics. Subsystems with
// richer instrumentation (audit, change feed) register their own.
type Metrics struct {
	Logins                prometheus.Counter
	LoginFailures         prometheus.Counter
	VerificationChanges   *prometheus.CounterVec
	DeletionDecisions     *prometheus.CounterVec
	GeocodeLookups        *prometheus.CounterVec
	GeocodeCacheHits      prometheus.Counter
	DashboardRefreshes    prometheus.Counter
	StaleReloadsDiscarded prometheus.Counter
}

// New creates and registers all application metrics on the given registerer.
// Tests pass a fresh prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_logins_total",
			Help: "Total number of successful sign-ins",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_login_failures_total",
			Help: "Total number of failed sign-in attempts",
		}),
		VerificationChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumport_verification_changes_total",
			Help: "Verification status transitions by action",
		}, []string{"action"}),
		DeletionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumport_deletion_decisions_total",
			Help: "Account deletion request decisions by outcome",
		}, []string{"outcome"}),
		GeocodeLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumport_geocode_lookups_total",
			Help: "Geocoding lookups by result (hit, resolved, miss, error)",
		}, []string{"result"}),
		GeocodeCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_geocode_cache_hits_total",
			Help: "Geocoding lookups answered from cache",
		}),
		DashboardRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_dashboard_refreshes_total",
			Help: "Dashboard overview reloads triggered by the change feed",
		}),
		StaleReloadsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_stale_reloads_discarded_total",
			Help: "Reload results discarded because a newer reload superseded them",
		}),
	}
}
