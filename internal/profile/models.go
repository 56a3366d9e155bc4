// Package profile holds the alumni profile model, its verification state
// machine, and the stores backing it.
package profile

import (
	"time"

	id "alumport/pkg/domain"
)

// VerificationStatus is the admin-facing classification of a profile.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusVerified   VerificationStatus = "verified"
	// StatusFlaggedNotAlumni marks a profile an admin or coordinator judged
	// to be incorrectly classified. It overrides verification until undone.
	StatusFlaggedNotAlumni VerificationStatus = "flagged_not_alumni"
)

// Valid reports whether s is a known status.
func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusUnverified, StatusVerified, StatusFlaggedNotAlumni:
		return true
	}
	return false
}

// CanTransition reports whether the state machine permits moving from s to
// next. Undoing a flag always lands on unverified; the machine has no edge
// from flagged back to verified.
func (s VerificationStatus) CanTransition(next VerificationStatus) bool {
	switch s {
	case StatusUnverified:
		return next == StatusVerified || next == StatusFlaggedNotAlumni
	case StatusVerified:
		return next == StatusUnverified || next == StatusFlaggedNotAlumni
	case StatusFlaggedNotAlumni:
		return next == StatusUnverified
	}
	return false
}

// Role is the authorization level of a profile.
type Role string

const (
	RoleMember      Role = "member"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// CanVerify reports whether the role may toggle verification.
func (r Role) CanVerify() bool {
	return r == RoleAdmin
}

// CanFlag reports whether the role may flag a profile as not-alumni.
func (r Role) CanFlag() bool {
	return r == RoleAdmin || r == RoleCoordinator
}

// Location is a best-effort geocoded position. Lat/Lon stay nil when
// geocoding failed or was never attempted.
type Location struct {
	Address string
	Lat     *float64
	Lon     *float64
}

// Profile is one alumni record.
type Profile struct {
	ID             id.UserID
	Email          string
	FullName       string
	Role           Role
	GraduationYear int
	Degree         string
	Location       Location

	Status     VerificationStatus
	VerifiedAt *time.Time
	VerifiedBy *id.UserID

	// PasswordHash is internal to the auth service; it never leaves the
	// store layer through the HTTP API.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Update carries the mutable identity fields for a profile edit. Nil fields
// are left untouched.
type Update struct {
	FullName       *string
	GraduationYear *int
	Degree         *string
	Address        *string
	Lat            *float64
	Lon            *float64

	// ClearCoords nulls latitude and longitude, used when a changed
	// address could not be geocoded.
	ClearCoords bool
}
