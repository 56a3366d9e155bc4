package deletion

import (
	"context"
	"time"

	id "alumport/pkg/domain"
)

// Store persists deletion requests.
type Store interface {
	Create(ctx context.Context, req Request) error
	FindByID(ctx context.Context, reqID id.DeletionRequestID) (Request, error)
	List(ctx context.Context, filter Filter) ([]Request, error)

	// SetDecision moves a request to the given status. Passing
	// StatusPending with nil decidedBy/decidedAt reverts a decision.
	SetDecision(ctx context.Context, reqID id.DeletionRequestID, status RequestStatus, decidedBy *id.UserID, decidedAt *time.Time) error
}
