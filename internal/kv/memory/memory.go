// Package memory provides an in-process kv.Store used as the default
// backend and as the failure-injecting double in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"subsentry/internal/kv"
)

type Store struct {
	mu      sync.Mutex
	items   map[string]string
	getErrs int
	setErrs int
	delErrs int
	sets    int
	gets    int
}

func New() *Store {
	return &Store{items: make(map[string]string)}
}

// Seed preloads a key without counting as a Set, for test fixtures.
func (s *Store) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// FailNextSets makes the next n Set calls fail with kv.ErrStorage.
func (s *Store) FailNextSets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErrs = n
}

// FailNextGets makes the next n Get calls fail with kv.ErrStorage.
func (s *Store) FailNextGets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErrs = n
}

// FailNextDeletes makes the next n Delete calls fail with kv.ErrStorage.
func (s *Store) FailNextDeletes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delErrs = n
}

// SetCalls reports how many Set calls the store has seen.
func (s *Store) SetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// GetCalls reports how many Get calls the store has seen.
func (s *Store) GetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErrs > 0 {
		s.getErrs--
		return "", false, fmt.Errorf("%w: injected get failure", kv.ErrStorage)
	}
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErrs > 0 {
		s.setErrs--
		return fmt.Errorf("%w: injected set failure", kv.ErrStorage)
	}
	s.items[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErrs > 0 {
		s.delErrs--
		return fmt.Errorf("%w: injected delete failure", kv.ErrStorage)
	}
	delete(s.items, key)
	return nil
}

var _ kv.Store = (*Store)(nil)
