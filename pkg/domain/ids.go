// Package domain holds identifier types shared across the service.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects, for
// example, passing a deletion-request ID where a user ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "alumport/pkg/domain-errors"
)

// UserID identifies a profile row. Actors and targets of audit entries are
// both UserIDs.
type UserID uuid.UUID

// EntryID identifies an audit entry.
type EntryID uuid.UUID

// DeletionRequestID identifies an account deletion request.
type DeletionRequestID uuid.UUID

// SessionID identifies an authenticated session.
type SessionID uuid.UUID

func (id UserID) String() string            { return uuid.UUID(id).String() }
func (id EntryID) String() string           { return uuid.UUID(id).String() }
func (id DeletionRequestID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string         { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id DeletionRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

// The Text marshallers render IDs as canonical UUID strings so JSON bodies
// and cached values stay human-readable.

func (id UserID) MarshalText() ([]byte, error)            { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)           { return []byte(id.String()), nil }
func (id DeletionRequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = UserID(parsed)
	return nil
}

func (id *EntryID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = EntryID(parsed)
	return nil
}

func (id *DeletionRequestID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = DeletionRequestID(parsed)
	return nil
}

func (id *SessionID) UnmarshalText(raw []byte) error {
	parsed, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	*id = SessionID(parsed)
	return nil
}

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewEntryID returns a fresh random EntryID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// NewDeletionRequestID returns a fresh random DeletionRequestID.
func NewDeletionRequestID() DeletionRequestID { return DeletionRequestID(uuid.New()) }

// NewSessionID returns a fresh random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID validates raw and returns it as a UserID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseEntryID validates raw and returns it as an EntryID.
func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(parsed), nil
}

// ParseDeletionRequestID validates raw and returns it as a DeletionRequestID.
func ParseDeletionRequestID(raw string) (DeletionRequestID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return DeletionRequestID{}, err
	}
	return DeletionRequestID(parsed), nil
}

// ParseSessionID validates raw and returns it as a SessionID.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(parsed), nil
}
