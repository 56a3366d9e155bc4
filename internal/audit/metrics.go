package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts audit writes. The recorder never surfaces errors to
// callers, so these counters are the only signal that writes are failing.
type Metrics struct {
	Written        *prometheus.CounterVec
	WriteFailures  *prometheus.CounterVec
	DroppedInvalid prometheus.Counter
}

// NewMetrics registers the audit counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Written: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumport_audit_entries_written_total",
			Help: "Audit entries successfully persisted, by action.",
		}, []string{"action"}),
		WriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumport_audit_write_failures_total",
			Help: "Audit entries that failed to persist, by action.",
		}, []string{"action"}),
		DroppedInvalid: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_audit_dropped_invalid_total",
			Help: "Audit entries dropped before write for failing validation.",
		}),
	}
}
