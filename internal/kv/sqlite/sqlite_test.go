package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "subsentry.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "subs_u1"); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "subs_u1", `[{"id":"a"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, "subs_u1")
	if err != nil || !ok || v != `[{"id":"a"}]` {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}

	// Upsert overwrites.
	if err := s.Set(ctx, "subs_u1", `[]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, _, _ = s.Get(ctx, "subs_u1")
	if v != `[]` {
		t.Fatalf("expected overwrite, got %q", v)
	}

	if err := s.Delete(ctx, "subs_u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "subs_u1"); ok {
		t.Fatal("key survived delete")
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "subs_u1"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}
