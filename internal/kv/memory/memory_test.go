package memory

import (
	"context"
	"errors"
	"testing"

	"subsentry/internal/kv"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "users", `[]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, "users")
	if err != nil || !ok || v != `[]` {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := s.Delete(ctx, "users"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "users"); ok {
		t.Fatal("key survived delete")
	}
}

func TestFailureInjection(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.FailNextSets(1)
	if err := s.Set(ctx, "k", "v"); !errors.Is(err, kv.ErrStorage) {
		t.Fatalf("expected kv.ErrStorage, got %v", err)
	}
	// Injected failure must not write.
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("failed set still stored value")
	}
	// Next call succeeds again.
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set after injection: %v", err)
	}

	s.FailNextGets(1)
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, kv.ErrStorage) {
		t.Fatalf("expected kv.ErrStorage on get, got %v", err)
	}

	s.FailNextDeletes(1)
	if err := s.Delete(ctx, "k"); !errors.Is(err, kv.ErrStorage) {
		t.Fatalf("expected kv.ErrStorage on delete, got %v", err)
	}
}
