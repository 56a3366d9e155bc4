package audit

import (
	"context"

	id "alumport/pkg/domain"
)

// Store persists audit entries. The interface is append-only: entries are
// never updated or deleted.
type Store interface {
	// Append writes one entry, assigning its ID and OccurredAt, and returns
	// the stored entry.
	Append(ctx context.Context, entry Entry) (Entry, error)

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Entry, error)

	// LatestByTargetAndAction returns the most recent entry with the given
	// target and action, or sentinel.ErrNotFound. The flagged-profiles
	// enrichment read path is built on this.
	LatestByTargetAndAction(ctx context.Context, target id.UserID, action Action) (Entry, error)
}
