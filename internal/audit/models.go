// Package audit provides the append-only activity log: the entry model, the
// stores backing it, and the fire-and-forget recorder services write through.
package audit

import (
	"time"

	id "alumport/pkg/domain"
)

// Action tags an audit entry. The vocabulary is closed per deployment:
// entries with unknown actions are dropped at the recorder, never written.
type Action string

const (
	// Session events.
	ActionLogin       Action = "login"
	ActionLogout      Action = "logout"
	ActionLoginFailed Action = "login_failed"

	// Profile events.
	ActionProfileUpdate Action = "profile_update"

	// Verification workflow.
	ActionVerifyProfile   Action = "verify_profile"
	ActionUnverifyProfile Action = "unverify_profile"
	ActionMarkNotAlumni   Action = "mark_not_alumni"
	ActionUndoNotAlumni   Action = "undo_not_alumni"

	// Account deletion workflow.
	ActionRequestDeletion      Action = "request_deletion"
	ActionApproveDeletion      Action = "approve_deletion"
	ActionDenyDeletion         Action = "deny_deletion"
	ActionUndoDeletionDecision Action = "undo_deletion_decision"
)

var knownActions = map[Action]struct{}{
	ActionLogin:                {},
	ActionLogout:               {},
	ActionLoginFailed:          {},
	ActionProfileUpdate:        {},
	ActionVerifyProfile:        {},
	ActionUnverifyProfile:      {},
	ActionMarkNotAlumni:        {},
	ActionUndoNotAlumni:        {},
	ActionRequestDeletion:      {},
	ActionApproveDeletion:      {},
	ActionDenyDeletion:         {},
	ActionUndoDeletionDecision: {},
}

// Valid reports whether a belongs to the vocabulary.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// AllowsNilActor reports whether an entry with this action may lack an
// actor. Only pre-authentication failures qualify: there is no session to
// attribute them to.
func (a Action) AllowsNilActor() bool {
	return a == ActionLoginFailed
}

// Entry is one immutable audit record. Once persisted it is never updated
// or deleted by this system.
type Entry struct {
	ID       id.EntryID
	ActorID  *id.UserID
	TargetID *id.UserID
	Action   Action
	// Details is free-form text understood by the presentation layer, not
	// by the writer.
	Details string
	// ClientContext is a best-effort browser/IP summary; never required.
	ClientContext string
	// OccurredAt is assigned by the store at insert.
	OccurredAt time.Time
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	ActorID  *id.UserID
	TargetID *id.UserID
	Action   Action
	Since    time.Time
	Limit    int
}
