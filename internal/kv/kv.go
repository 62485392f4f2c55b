// Package kv defines the asynchronous key-value store the ledger and
// session layers persist through. Keys are opaque strings, values UTF-8
// JSON; the store offers no transactions and no listing.
package kv

import (
	"context"
	"errors"
)

// ErrStorage marks any persistence-layer failure. Callers treat it as
// retryable and roll optimistic updates back.
var ErrStorage = errors.New("storage error")

// Store is the outbound persistence port.
type Store interface {
	// Get returns the value for key, with ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Storage key conventions shared by every component.
const (
	SessionKey = "session"
	UsersKey   = "users"
)

// SubsKey returns the storage key holding a user's serialized subscriptions.
func SubsKey(userID string) string {
	return "subs_" + userID
}
