package audit

import (
	"context"
	"fmt"

	id "alumport/pkg/domain"
	"alumport/pkg/requestcontext"
)

// The wrappers below are the only audit call sites services use. Each one
// fixes the action, the target, and the details wording in one place so the
// activity log reads consistently.

// LoginSucceeded records a successful login. The actor is passed explicitly
// because login runs before the auth middleware attaches one to the context.
func (r *Recorder) LoginSucceeded(ctx context.Context, actor id.UserID) {
	r.record(ctx, ActionLogin, &actor, &actor, "signed in")
}

// LoginFailed records a failed login attempt. This is the one entry written
// without an actor: nobody authenticated.
func (r *Recorder) LoginFailed(ctx context.Context, email string) {
	r.record(ctx, ActionLoginFailed, nil, nil,
		fmt.Sprintf("failed sign-in attempt for %s", email))
}

// LoggedOut records the acting user ending their session.
func (r *Recorder) LoggedOut(ctx context.Context) {
	var target *id.UserID
	if actor := requestcontext.ActorID(ctx); !actor.IsNil() {
		target = &actor
	}
	r.Record(ctx, ActionLogout, target, "signed out")
}

// ProfileUpdated records a profile edit. The summary names the fields that
// changed, e.g. "updated full_name, degree".
func (r *Recorder) ProfileUpdated(ctx context.Context, target id.UserID, summary string) {
	r.Record(ctx, ActionProfileUpdate, &target, summary)
}

// ProfileVerified records an admin marking a profile verified.
func (r *Recorder) ProfileVerified(ctx context.Context, target id.UserID) {
	r.Record(ctx, ActionVerifyProfile, &target, "profile verified")
}

// ProfileUnverified records an admin revoking verification.
func (r *Recorder) ProfileUnverified(ctx context.Context, target id.UserID) {
	r.Record(ctx, ActionUnverifyProfile, &target, "verification revoked")
}

// FlaggedNotAlumni records a profile being flagged as not an alumni. The
// details carry the flagging actor's role so the flagged-profiles view can
// show who is allowed to undo it.
func (r *Recorder) FlaggedNotAlumni(ctx context.Context, target id.UserID) {
	role := requestcontext.ActorRole(ctx)
	r.Record(ctx, ActionMarkNotAlumni, &target,
		fmt.Sprintf("flagged as not an alumni by %s", role))
}

// UndidNotAlumni records a not-alumni flag being reverted.
func (r *Recorder) UndidNotAlumni(ctx context.Context, target id.UserID) {
	r.Record(ctx, ActionUndoNotAlumni, &target, "not-alumni flag removed, status reset to unverified")
}

// DeletionRequested records a user asking for their account to be deleted.
func (r *Recorder) DeletionRequested(ctx context.Context, target id.UserID, reason string) {
	details := "account deletion requested"
	if reason != "" {
		details = fmt.Sprintf("account deletion requested: %s", reason)
	}
	r.Record(ctx, ActionRequestDeletion, &target, details)
}

// DeletionApproved records an admin approving a deletion request.
func (r *Recorder) DeletionApproved(ctx context.Context, target id.UserID) {
	r.Record(ctx, ActionApproveDeletion, &target, "deletion request approved")
}

// DeletionDenied records an admin denying a deletion request.
func (r *Recorder) DeletionDenied(ctx context.Context, target id.UserID, reason string) {
	details := "deletion request denied"
	if reason != "" {
		details = fmt.Sprintf("deletion request denied: %s", reason)
	}
	r.Record(ctx, ActionDenyDeletion, &target, details)
}

// DeletionDecisionUndone records a deletion decision being reset to pending.
func (r *Recorder) DeletionDecisionUndone(ctx context.Context, target id.UserID) {
	r.Record(ctx, ActionUndoDeletionDecision, &target, "deletion decision reverted to pending")
}
