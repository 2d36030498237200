package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewUserID(t *testing.T) {
	id1, err := NewUserID()
	require.NoError(t, err)
	id2, err := NewUserID()
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2, "user ids must be unique")
}

func TestIssueAndValidate(t *testing.T) {
	tm := NewTokenManager(testSigningKey)

	token, err := tm.Issue("user-1", "BOARD1", 0)
	require.NoError(t, err)

	userId, err := tm.Validate(token, "BOARD1")
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userId)

	t.Run("wrong board", func(t *testing.T) {
		_, err := tm.Validate(token, "BOARD2")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := tm.Validate("not-a-token", "BOARD1")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign signing key", func(t *testing.T) {
		other := NewTokenManager([]byte("another-signing-key-entirely!!!!"))
		foreign, err := other.Issue("user-1", "BOARD1", 0)
		require.NoError(t, err)

		_, err = tm.Validate(foreign, "BOARD1")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateExpired(t *testing.T) {
	tm := NewTokenManager(testSigningKey)

	token, err := tm.Issue("user-1", "BOARD1", time.Hour)
	require.NoError(t, err)

	_, err = tm.Validate(token, "BOARD1")
	assert.NoError(t, err)

	// move the manager's clock past the expiry
	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = tm.Validate(token, "BOARD1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	tm := NewTokenManager(testSigningKey)

	token, err := tm.Issue("user-1", "BOARD1", 0)
	require.NoError(t, err)

	tm.Revoke(token)

	userId, err := tm.Validate(token, "BOARD1")
	assert.ErrorIs(t, err, ErrTokenRevoked, "revocation is permanent")
	assert.Equal(t, "user-1", userId, "revoked tokens still resolve their user")

	// idempotent, including on garbage input
	tm.Revoke(token)
	tm.Revoke("not-a-token")

	_, err = tm.Validate(token, "BOARD1")
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRevokeUser(t *testing.T) {
	tm := NewTokenManager(testSigningKey)

	tok1, err := tm.Issue("user-1", "BOARD1", 0)
	require.NoError(t, err)
	tok2, err := tm.Issue("user-1", "BOARD1", 0)
	require.NoError(t, err)
	other, err := tm.Issue("user-2", "BOARD1", 0)
	require.NoError(t, err)

	tm.RevokeUser("BOARD1", "user-1")

	_, err = tm.Validate(tok1, "BOARD1")
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = tm.Validate(tok2, "BOARD1")
	assert.ErrorIs(t, err, ErrTokenRevoked)

	userId, err := tm.Validate(other, "BOARD1")
	assert.NoError(t, err, "other users' tokens are unaffected")
	assert.Equal(t, "user-2", userId)
}

func TestReleaseBoard(t *testing.T) {
	tm := NewTokenManager(testSigningKey)

	tok, err := tm.Issue("user-1", "BOARD1", 0)
	require.NoError(t, err)
	kept, err := tm.Issue("user-1", "BOARD2", 0)
	require.NoError(t, err)

	tm.ReleaseBoard("BOARD1")

	_, err = tm.Validate(tok, "BOARD1")
	assert.ErrorIs(t, err, ErrInvalidToken, "released records no longer validate")

	_, err = tm.Validate(kept, "BOARD2")
	assert.NoError(t, err)
}
