package profile

import (
	"context"
	"time"

	id "alumport/pkg/domain"
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status VerificationStatus
	Role   Role
	Limit  int
}

// Store persists profiles. Postgres backs production; the in-memory
// implementation backs unit tests.
type Store interface {
	Create(ctx context.Context, p Profile) error
	FindByID(ctx context.Context, userID id.UserID) (Profile, error)
	FindByEmail(ctx context.Context, email string) (Profile, error)
	List(ctx context.Context, filter Filter) ([]Profile, error)
	Update(ctx context.Context, userID id.UserID, update Update, now time.Time) (Profile, error)

	// SetVerification is the direct row update, executed under the service
	// role's own grants. Used as the fallback when the privileged procedure
	// is unavailable.
	SetVerification(ctx context.Context, target id.UserID, status VerificationStatus, verifiedAt *time.Time, verifiedBy *id.UserID) error

	// SetVerificationPrivileged invokes the server-enforced procedure
	// (admin_set_verification). Implementations return
	// sentinel.ErrUnavailable when the procedure is missing or the grant is
	// absent, signalling the caller to fall back to SetVerification.
	SetVerificationPrivileged(ctx context.Context, target id.UserID, status VerificationStatus, verifiedAt *time.Time, verifiedBy *id.UserID) error

	// CountByStatus returns the number of profiles per verification status.
	CountByStatus(ctx context.Context) (map[VerificationStatus]int, error)
}
