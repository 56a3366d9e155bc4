// Package deletion implements the account-deletion request workflow:
// members file requests, admins approve or deny them, and decisions can be
// reverted to pending.
package deletion

import (
	"time"

	id "alumport/pkg/domain"
)

// RequestStatus is the decision state of a deletion request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// Decided reports whether the request has left the pending state.
func (s RequestStatus) Decided() bool {
	return s == StatusApproved || s == StatusDenied
}

// Request is one account-deletion request.
type Request struct {
	ID     id.DeletionRequestID
	UserID id.UserID
	Reason string

	Status    RequestStatus
	DecidedBy *id.UserID
	DecidedAt *time.Time

	CreatedAt time.Time
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	UserID *id.UserID
	Status RequestStatus
	Limit  int
}
