// Package session maps a user identity to the persisted session record and
// the user directory. One session exists per process; it is created on
// login or signup and destroyed on logout.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"subsentry/internal/core"
	"subsentry/internal/kv"
)

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("no active session")
)

// record is the JSON shape stored under the session key.
type record struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type Manager struct {
	store kv.Store

	mu      sync.Mutex
	state   State
	current *core.User
	token   string
}

func NewManager(store kv.Store) *Manager {
	return &Manager{store: store, state: StateAnonymous}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (m *Manager) CurrentUser() *core.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	u := *m.current
	return &u
}

// Signup registers a new user. The email is a case-sensitive unique key; a
// duplicate fails before anything is written.
func (m *Manager) Signup(ctx context.Context, email, password string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAuthenticating

	users, err := m.loadDirectory(ctx)
	if err != nil {
		m.state = StateAnonymous
		return core.User{}, err
	}
	for _, u := range users {
		if u.Email == email {
			m.state = StateAnonymous
			return core.User{}, ErrDuplicateEmail
		}
	}

	user := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashPassword(password),
		CreatedAt:    time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		m.state = StateAnonymous
		return core.User{}, err
	}

	if err := m.saveDirectory(ctx, append(users, user)); err != nil {
		m.state = StateAnonymous
		return core.User{}, err
	}
	if err := m.openSession(ctx, user); err != nil {
		m.state = StateAnonymous
		return core.User{}, err
	}
	slog.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// Login authenticates against the stored directory and persists a fresh
// session record.
func (m *Manager) Login(ctx context.Context, email, password string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAuthenticating

	users, err := m.loadDirectory(ctx)
	if err != nil {
		m.state = StateAnonymous
		return core.User{}, err
	}

	digest := hashPassword(password)
	for _, u := range users {
		if u.Email == email && u.PasswordHash == digest {
			if err := m.openSession(ctx, u); err != nil {
				m.state = StateAnonymous
				return core.User{}, err
			}
			slog.InfoContext(ctx, "user logged in", "user_id", u.ID)
			return u, nil
		}
	}
	m.state = StateAnonymous
	return core.User{}, ErrInvalidCredentials
}

// RestoreSession resolves a persisted session record at process start. A
// missing, unreadable, or unresolvable record degrades to anonymous; the
// password is not re-validated.
func (m *Manager) RestoreSession(ctx context.Context) *core.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.Get(ctx, kv.SessionKey)
	if err != nil {
		slog.WarnContext(ctx, "session check failed, continuing anonymous", "error", err)
		m.state = StateAnonymous
		return nil
	}
	if !ok {
		m.state = StateAnonymous
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.WarnContext(ctx, "unreadable session record, continuing anonymous", "error", err)
		m.state = StateAnonymous
		return nil
	}

	users, err := m.loadDirectory(ctx)
	if err != nil {
		slog.WarnContext(ctx, "user directory unavailable, continuing anonymous", "error", err)
		m.state = StateAnonymous
		return nil
	}
	for _, u := range users {
		if u.ID == rec.UserID {
			m.state = StateAuthenticated
			m.current = &u
			m.token = rec.Token
			slog.InfoContext(ctx, "session restored", "user_id", u.ID)
			user := u
			return &user
		}
	}

	slog.WarnContext(ctx, "session token does not resolve to a user", "user_id", rec.UserID)
	m.state = StateAnonymous
	return nil
}

// Logout deletes the session record. Interactive confirmation is the
// caller's precondition.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, kv.SessionKey); err != nil {
		return err
	}
	if m.current != nil {
		slog.InfoContext(ctx, "user logged out", "user_id", m.current.ID)
	}
	m.state = StateAnonymous
	m.current = nil
	m.token = ""
	return nil
}

func (m *Manager) openSession(ctx context.Context, user core.User) error {
	token := uuid.NewString()
	raw, err := json.Marshal(record{UserID: user.ID, Token: token})
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := m.store.Set(ctx, kv.SessionKey, string(raw)); err != nil {
		return err
	}
	m.state = StateAuthenticated
	m.current = &user
	m.token = token
	return nil
}

func (m *Manager) loadDirectory(ctx context.Context) ([]core.User, error) {
	raw, ok, err := m.store.Get(ctx, kv.UsersKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var users []core.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decode user directory: %w", err)
	}
	return users, nil
}

func (m *Manager) saveDirectory(ctx context.Context, users []core.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode user directory: %w", err)
	}
	return m.store.Set(ctx, kv.UsersKey, string(raw))
}

// hashPassword is a plain SHA-256 hex digest. Hardened password hashing is
// explicitly out of scope for this system.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
