package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"alumport/internal/platform/kafka"
)

// Listener consumes the change-feed topic and forwards table names to the
// coalescer. Malformed records are logged and skipped.
type Listener struct {
	consumer  *kafka.Consumer
	coalescer *Coalescer
	logger    *slog.Logger
}

// NewListener wires a listener.
func NewListener(consumer *kafka.Consumer, coalescer *Coalescer, logger *slog.Logger) *Listener {
	return &Listener{
		consumer:  consumer,
		coalescer: coalescer,
		logger:    logger,
	}
}

// Run consumes until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	return l.consumer.Run(ctx, func(_ context.Context, msg *kafka.Message) error {
		var change Change
		if err := json.Unmarshal(msg.Value, &change); err != nil {
			return fmt.Errorf("decode change notification: %w", err)
		}
		if change.Table == "" {
			return fmt.Errorf("change notification without table")
		}
		l.coalescer.Notify(change.Table)
		return nil
	})
}

// Close stops the underlying consumer.
func (l *Listener) Close() {
	l.consumer.Close()
}
