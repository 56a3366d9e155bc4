package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "alumport/pkg/domain-errors"
)

// TestParseUserID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUserID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

func TestParseDeletionRequestID(t *testing.T) {
	valid := uuid.New()
	id, err := ParseDeletionRequestID(valid.String())
	require.NoError(t, err)
	assert.Equal(t, DeletionRequestID(valid), id)

	_, err = ParseDeletionRequestID("nope")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. The runtime check is a formality; the value is the named types.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	entryID := EntryID(uuid.New())

	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(entryID))
	assert.False(t, userID.IsNil())
	assert.True(t, UserID{}.IsNil())
}
