package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mssola/useragent"

	id "alumport/pkg/domain"
	"alumport/pkg/requestcontext"
)

// Recorder writes audit entries on a fire-and-forget basis. Record never
// returns an error: a failed audit write must not fail the operation being
// audited, so failures go to the logger and the failure counter instead.
type Recorder struct {
	store   Store
	metrics *Metrics
	logger  *slog.Logger
}

// NewRecorder wires a recorder to its store.
func NewRecorder(store Store, metrics *Metrics, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Record writes one entry attributed to the actor on the context. Entries
// that fail validation are dropped, never partially written.
func (r *Recorder) Record(ctx context.Context, action Action, target *id.UserID, details string) {
	var actor *id.UserID
	if actorID := requestcontext.ActorID(ctx); !actorID.IsNil() {
		actor = &actorID
	}
	r.record(ctx, action, actor, target, details)
}

func (r *Recorder) record(ctx context.Context, action Action, actor, target *id.UserID, details string) {
	log := r.logger.With(
		slog.String("action", string(action)),
		slog.String("request_id", requestcontext.RequestID(ctx)),
	)

	if !action.Valid() {
		r.metrics.DroppedInvalid.Inc()
		log.Error("audit entry dropped: unknown action")
		return
	}
	if actor == nil && !action.AllowsNilActor() {
		r.metrics.DroppedInvalid.Inc()
		log.Error("audit entry dropped: missing actor")
		return
	}

	entry := Entry{
		ActorID:       actor,
		TargetID:      target,
		Action:        action,
		Details:       details,
		ClientContext: clientContext(ctx),
		OccurredAt:    requestcontext.Now(ctx),
	}

	if _, err := r.store.Append(ctx, entry); err != nil {
		r.metrics.WriteFailures.WithLabelValues(string(action)).Inc()
		log.Error("audit write failed", slog.String("error", err.Error()))
		return
	}
	r.metrics.Written.WithLabelValues(string(action)).Inc()
}

// Latest returns the most recent entry for target with the given action,
// or sentinel.ErrNotFound. Read path for views that attribute a state to
// the entry that caused it.
func (r *Recorder) Latest(ctx context.Context, target id.UserID, action Action) (Entry, error) {
	return r.store.LatestByTargetAndAction(ctx, target, action)
}

// clientContext summarizes the requesting client from context metadata,
// e.g. "Chrome 126 on Linux (203.0.113.9)". Empty when nothing is known.
func clientContext(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	rawUA := requestcontext.UserAgent(ctx)
	if rawUA == "" {
		return ip
	}

	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	summary := browser
	if version != "" {
		summary = fmt.Sprintf("%s %s", browser, version)
	}
	if osName := ua.OSInfo().Name; osName != "" {
		summary = fmt.Sprintf("%s on %s", summary, osName)
	}
	if ip != "" {
		summary = fmt.Sprintf("%s (%s)", summary, ip)
	}
	return summary
}
