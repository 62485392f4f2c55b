package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsentry/internal/core"
	"subsentry/internal/kv"
	"subsentry/internal/kv/memory"
)

func TestSignupAndLogin(t *testing.T) {
	store := memory.New()
	m := NewManager(store)
	ctx := context.Background()

	user, err := m.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.Equal(t, StateAuthenticated, m.State())

	// Directory and session record both persisted.
	rawUsers, ok, _ := store.Get(ctx, kv.UsersKey)
	require.True(t, ok)
	var users []core.User
	require.NoError(t, json.Unmarshal([]byte(rawUsers), &users))
	require.Len(t, users, 1)
	assert.Equal(t, user.ID, users[0].ID)

	rawSession, ok, _ := store.Get(ctx, kv.SessionKey)
	require.True(t, ok)
	assert.Contains(t, rawSession, user.ID)

	// Fresh manager against the same store can log in.
	m2 := NewManager(store)
	got, err := m2.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, StateAuthenticated, m2.State())
}

func TestSignupDuplicateEmailLeavesDirectoryUnchanged(t *testing.T) {
	store := memory.New()
	m := NewManager(store)
	ctx := context.Background()

	_, err := m.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	rawBefore, _, _ := store.Get(ctx, kv.UsersKey)
	setsBefore := store.SetCalls()

	_, err = m.Signup(ctx, "alice@example.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	rawAfter, _, _ := store.Get(ctx, kv.UsersKey)
	assert.Equal(t, rawBefore, rawAfter)
	assert.Equal(t, setsBefore, store.SetCalls(), "duplicate signup must not write")
}

func TestSignupEmailIsCaseSensitive(t *testing.T) {
	store := memory.New()
	m := NewManager(store)
	ctx := context.Background()

	_, err := m.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	_, err = m.Signup(ctx, "Alice@example.com", "secret")
	assert.NoError(t, err, "emails are compared case-sensitively")
}

func TestLoginInvalidCredentials(t *testing.T) {
	store := memory.New()
	m := NewManager(store)
	ctx := context.Background()

	_, err := m.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	_, err = m.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = m.Login(ctx, "bob@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, StateAnonymous, m.State())
}

func TestRestoreSession(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	first := NewManager(store)
	user, err := first.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	// A new process restores without re-validating the password.
	restored := NewManager(store).RestoreSession(ctx)
	require.NotNil(t, restored)
	assert.Equal(t, user.ID, restored.ID)
}

func TestRestoreSessionDegradesToAnonymous(t *testing.T) {
	ctx := context.Background()

	// No session record at all.
	m := NewManager(memory.New())
	assert.Nil(t, m.RestoreSession(ctx))
	assert.Equal(t, StateAnonymous, m.State())

	// A record pointing at a deleted user.
	store := memory.New()
	store.Seed(kv.SessionKey, `{"userId":"ghost","token":"t"}`)
	m = NewManager(store)
	assert.Nil(t, m.RestoreSession(ctx))
	assert.Equal(t, StateAnonymous, m.State())

	// Garbage in the session slot.
	store = memory.New()
	store.Seed(kv.SessionKey, `not-json`)
	m = NewManager(store)
	assert.Nil(t, m.RestoreSession(ctx))

	// Storage read failure is swallowed, not raised.
	store = memory.New()
	store.FailNextGets(1)
	m = NewManager(store)
	assert.Nil(t, m.RestoreSession(ctx))
	assert.Equal(t, StateAnonymous, m.State())
}

func TestLogout(t *testing.T) {
	store := memory.New()
	m := NewManager(store)
	ctx := context.Background()

	_, err := m.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, m.CurrentUser())
	if _, ok, _ := store.Get(ctx, kv.SessionKey); ok {
		t.Fatal("session record survived logout")
	}
}

func TestLogoutSurfacesStorageError(t *testing.T) {
	store := memory.New()
	m := NewManager(store)
	ctx := context.Background()

	_, err := m.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	store.FailNextDeletes(1)
	err = m.Logout(ctx)
	require.ErrorIs(t, err, kv.ErrStorage)
	// Session stays usable; the caller may retry.
	assert.Equal(t, StateAuthenticated, m.State())
	require.NoError(t, m.Logout(ctx))
}

func TestStorageFailureDuringSignup(t *testing.T) {
	store := memory.New()
	m := NewManager(store)
	ctx := context.Background()

	store.FailNextSets(1)
	_, err := m.Signup(ctx, "alice@example.com", "secret")
	require.ErrorIs(t, err, kv.ErrStorage)
	assert.Equal(t, StateAnonymous, m.State())

	// Retry succeeds.
	_, err = m.Signup(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
}
