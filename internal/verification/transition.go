// Package verification implements the admin verification workflow: the
// verify/unverify toggle, the not-alumni flag and its undo, and the
// flagged-profiles review listing.
package verification

import (
	"fmt"

	"alumport/internal/profile"
	id "alumport/pkg/domain"
)

// Phase tracks a transition through its two-step lifecycle. A transition is
// staged before the store write and committed only after the write succeeds;
// the audit entry is written strictly after commit, so a failed write leaves
// no audit trace.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseCommitted  Phase = "committed"
	PhaseRolledBack Phase = "rolled_back"
)

// Transition is one staged verification-status change.
type Transition struct {
	Target id.UserID
	From   profile.VerificationStatus
	To     profile.VerificationStatus

	phase Phase
}

// Begin stages a transition, rejecting edges the state machine does not
// have. It does not touch storage.
func Begin(target id.UserID, from, to profile.VerificationStatus) (*Transition, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown verification status %q", to)
	}
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("no transition from %s to %s", from, to)
	}
	return &Transition{Target: target, From: from, To: to, phase: PhasePending}, nil
}

// Phase returns the current lifecycle phase.
func (t *Transition) Phase() Phase {
	return t.phase
}

// Commit marks the staged change as durably applied. Only a pending
// transition can commit.
func (t *Transition) Commit() error {
	if t.phase != PhasePending {
		return fmt.Errorf("commit in phase %s", t.phase)
	}
	t.phase = PhaseCommitted
	return nil
}

// Rollback marks the staged change as abandoned after a failed write.
func (t *Transition) Rollback() error {
	if t.phase != PhasePending {
		return fmt.Errorf("rollback in phase %s", t.phase)
	}
	t.phase = PhaseRolledBack
	return nil
}
