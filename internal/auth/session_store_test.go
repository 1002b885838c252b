package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	s, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionCreateAndLookup(t *testing.T) {
	s := newTestSessionStore(t)

	token, err := s.Create("u_alpha", time.Hour)
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 random bytes, hex encoded

	userID, err := s.Lookup(token)
	require.NoError(t, err)
	assert.Equal(t, "u_alpha", userID)
}

func TestSessionLookupUnknownToken(t *testing.T) {
	s := newTestSessionStore(t)

	_, err := s.Lookup("deadbeef")
	assert.True(t, errors.Is(err, ErrSessionInvalid))

	_, err = s.Lookup("")
	assert.True(t, errors.Is(err, ErrSessionInvalid))
}

func TestSessionExpiry(t *testing.T) {
	s := newTestSessionStore(t)

	token, err := s.Create("u_alpha", -time.Minute)
	require.NoError(t, err)

	_, err = s.Lookup(token)
	assert.True(t, errors.Is(err, ErrSessionExpired))

	// Expired tokens are deleted on first sight; a second lookup sees no row.
	_, err = s.Lookup(token)
	assert.True(t, errors.Is(err, ErrSessionInvalid))
}

func TestSessionRevoke(t *testing.T) {
	s := newTestSessionStore(t)

	token, err := s.Create("u_alpha", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Revoke(token))
	_, err = s.Lookup(token)
	assert.True(t, errors.Is(err, ErrSessionInvalid))

	// Revoking unknown or empty tokens is a no-op.
	require.NoError(t, s.Revoke("unknown"))
	require.NoError(t, s.Revoke(""))
}

func TestDeleteExpired(t *testing.T) {
	s := newTestSessionStore(t)

	expired, err := s.Create("u_old", time.Minute)
	require.NoError(t, err)
	live, err := s.Create("u_new", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpired(time.Now().UTC().Add(30*time.Minute)))

	_, err = s.Lookup(expired)
	assert.True(t, errors.Is(err, ErrSessionInvalid))
	userID, err := s.Lookup(live)
	require.NoError(t, err)
	assert.Equal(t, "u_new", userID)
}

func TestCreateRequiresUserID(t *testing.T) {
	s := newTestSessionStore(t)
	_, err := s.Create("  ", time.Hour)
	require.Error(t, err)
}
