// Package memory is an in-process snapshot exporter used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"subsentry/internal/core"
	ports "subsentry/internal/export"
)

type Store struct {
	mu        sync.Mutex
	snapshots map[string][]core.Subscription
	exports   int
}

var _ ports.SnapshotExporter = (*Store)(nil)

func New() *Store {
	return &Store{snapshots: make(map[string][]core.Subscription)}
}

// ExportSnapshot keeps only the latest snapshot per user.
func (s *Store) ExportSnapshot(_ context.Context, userID string, subs []core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = append([]core.Subscription(nil), subs...)
	s.exports++
	return nil
}

// Snapshot returns a copy of the last exported list for userID.
func (s *Store) Snapshot(userID string) []core.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Subscription(nil), s.snapshots[userID]...)
}

// Exports counts ExportSnapshot calls across all users.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
