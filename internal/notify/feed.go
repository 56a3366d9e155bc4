// Package notify carries table-change notifications between API instances:
// services publish "table X changed" hints to Kafka, and the listener side
// coalesces bursts of hints into single dashboard refreshes.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"alumport/internal/platform/kafka"
	"alumport/pkg/platform/circuit"
)

// Change is the wire format of one notification. It names the table and
// the kind of change, never the changed rows: consumers reload, they do not
// replay.
type Change struct {
	Table string `json:"table"`
	Event string `json:"event"`
}

// FeedMetrics counts feed publishes.
type FeedMetrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
	Dropped   prometheus.Counter
}

// NewFeedMetrics registers feed counters on the given registerer.
func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	factory := promauto.With(reg)
	return &FeedMetrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_feed_published_total",
			Help: "Change notifications delivered to the broker.",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_feed_failures_total",
			Help: "Change notifications the broker rejected.",
		}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "alumport_feed_dropped_total",
			Help: "Change notifications dropped while the circuit was open or the feed disabled.",
		}),
	}
}

// Feed publishes change notifications on a best-effort basis. Publish never
// blocks the calling operation and never fails it; a broker outage opens the
// circuit and later publishes are dropped. After the cooldown the circuit
// goes half-open and lets a trial publish through, so the feed recovers on
// its own once the broker does.
type Feed struct {
	producer *kafka.Producer
	topic    string
	breaker  *circuit.Breaker
	metrics  *FeedMetrics
	logger   *slog.Logger
}

// NewFeed wires a feed to its producer. A nil producer yields a disabled
// feed that drops every publish, for deployments without a broker.
func NewFeed(producer *kafka.Producer, topic string, metrics *FeedMetrics, logger *slog.Logger) *Feed {
	return &Feed{
		producer: producer,
		topic:    topic,
		breaker: circuit.New("change-feed",
			circuit.WithFailureThreshold(5),
			circuit.WithCooldown(30*time.Second),
		),
		metrics:  metrics,
		logger:   logger,
	}
}

// Publish sends one {table, event} notification, keyed by table so changes
// to the same table stay ordered per partition.
func (f *Feed) Publish(ctx context.Context, table, event string) {
	if f.producer == nil {
		f.metrics.Dropped.Inc()
		return
	}
	if f.breaker.IsOpen() {
		f.metrics.Dropped.Inc()
		return
	}

	payload, err := json.Marshal(Change{Table: table, Event: event})
	if err != nil {
		f.metrics.Failed.Inc()
		f.logger.Error("change feed marshal failed", slog.String("table", table), slog.String("error", err.Error()))
		return
	}

	f.producer.Produce(ctx, f.topic, []byte(table), payload, func(err error) {
		if err != nil {
			f.metrics.Failed.Inc()
			if _, change := f.breaker.RecordFailure(); change.Opened {
				f.logger.Error("change feed circuit opened", slog.String("error", err.Error()))
			}
			return
		}
		f.metrics.Published.Inc()
		if _, change := f.breaker.RecordSuccess(); change.Closed {
			f.logger.Info("change feed circuit closed")
		}
	})
}
