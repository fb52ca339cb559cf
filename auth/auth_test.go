package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darts/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "darts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, NewSessionManager("test-secret"))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Register("alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "password1", user.PasswordHash)

	sessionID, loggedIn, err := svc.Login("alice", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, user.ID, loggedIn.ID)

	playerID, ok := svc.ValidateSession(sessionID)
	assert.True(t, ok)
	assert.Equal(t, user.ID, playerID)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"username too short", "ab", "password1", ErrInvalidUsername},
		{"username too long", "abcdefghijklmnopqrstu", "password1", ErrInvalidUsername},
		{"username with symbols", "al!ce", "password1", ErrInvalidUsername},
		{"password too short", "alice", "pass1", ErrInvalidPassword},
		{"password without numbers", "alice", "passwords", ErrInvalidPassword},
		{"password without letters", "alice", "12345678", ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.username, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterSanitizesUsername(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Register("<b>alice</b>", "password1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register("alice", "password1")
	require.NoError(t, err)

	_, err = svc.Register("alice", "different2")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Login("nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register("alice", "password1")
	require.NoError(t, err)

	_, _, err = svc.Login("alice", "wrongpass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register("alice", "password1")
	require.NoError(t, err)
	sessionID, _, err := svc.Login("alice", "password1")
	require.NoError(t, err)

	svc.Logout(sessionID)
	_, ok := svc.ValidateSession(sessionID)
	assert.False(t, ok)
}

func TestSessionCookieRoundTrip(t *testing.T) {
	sm := NewSessionManager("test-secret")

	sessionID, err := sm.CreateSession("player-1")
	require.NoError(t, err)

	// A forged cookie value signed with a different secret must not decode.
	other := NewSessionManager("other-secret")
	forged, err := other.codec.Encode("session_id", sessionID)
	require.NoError(t, err)

	var out string
	err = sm.codec.Decode("session_id", forged, &out)
	assert.Error(t, err)

	genuine, err := sm.codec.Encode("session_id", sessionID)
	require.NoError(t, err)
	require.NoError(t, sm.codec.Decode("session_id", genuine, &out))
	assert.Equal(t, sessionID, out)
}
