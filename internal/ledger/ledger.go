// Package ledger owns the in-memory subscription snapshot for the active
// session. Every mutation validates, applies to a copy, then writes the
// whole serialized snapshot through to the store; on a storage failure the
// snapshot is restored to its exact pre-call state so callers never observe
// a partial write.
//
// Concurrent mutations on the same session are not supported: callers are
// expected to serialize them, and overlapping writers degrade to
// last-write-wins without corrupting the snapshot.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"subsentry/internal/core"
	"subsentry/internal/kv"
)

var ErrNotFound = errors.New("subscription not found")

// Input carries the caller-supplied fields for a new subscription. ID,
// owner, status, timestamps, and the canonical cost are assigned here.
type Input struct {
	Name         string
	Cost         decimal.Decimal
	Currency     core.Currency
	BillingCycle core.BillingCycle
	RenewalDate  *core.Date
	Category     core.Category
	Notes        string
}

// Patch holds the fields of an update; nil fields keep their current value.
// A renewal date is cleared implicitly when the cycle becomes one-time,
// never by an explicit null.
type Patch struct {
	Name         *string
	Cost         *decimal.Decimal
	Currency     *core.Currency
	BillingCycle *core.BillingCycle
	RenewalDate  *core.Date
	Category     *core.Category
	Status       *core.Status
	Notes        *string
}

type Ledger struct {
	store  kv.Store
	rates  core.RateTable
	userID string
	subs   []core.Subscription
}

// New creates an empty ledger for userID. Call Load to rebuild the snapshot
// from the store before serving reads.
func New(store kv.Store, rates core.RateTable, userID string) *Ledger {
	return &Ledger{store: store, rates: rates, userID: userID}
}

func (l *Ledger) UserID() string { return l.userID }

// Load rebuilds the snapshot wholesale from the store. An absent key means
// an empty ledger, not an error.
func (l *Ledger) Load(ctx context.Context) error {
	raw, ok, err := l.store.Get(ctx, kv.SubsKey(l.userID))
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		l.subs = nil
		return nil
	}
	var subs []core.Subscription
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return fmt.Errorf("decode subscriptions for %s: %w", l.userID, err)
	}
	l.subs = subs
	return nil
}

// List returns a copy of the current snapshot in insertion order. It never
// touches the store.
func (l *Ledger) List() []core.Subscription {
	out := make([]core.Subscription, len(l.subs))
	copy(out, l.subs)
	return out
}

// Add validates the input, appends the new subscription, and persists the
// full snapshot. The in-memory state is untouched when validation or the
// write fails.
func (l *Ledger) Add(ctx context.Context, in Input) (core.Subscription, error) {
	sub := core.Subscription{
		ID:           uuid.NewString(),
		UserID:       l.userID,
		Name:         in.Name,
		Cost:         in.Cost,
		Currency:     in.Currency,
		BillingCycle: in.BillingCycle,
		RenewalDate:  in.RenewalDate,
		Category:     in.Category,
		Status:       core.StatusActive,
		Notes:        in.Notes,
		CreatedAt:    time.Now().UTC(),
	}
	if sub.BillingCycle == core.OneTime {
		sub.RenewalDate = nil
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	canonical, err := core.ToCanonical(sub.Cost, sub.Currency, l.rates)
	if err != nil {
		return core.Subscription{}, err
	}
	sub.CostInINR = canonical

	prev := l.subs
	next := make([]core.Subscription, len(prev), len(prev)+1)
	copy(next, prev)
	l.subs = append(next, sub)

	if err := l.persist(ctx); err != nil {
		l.subs = prev
		return core.Subscription{}, err
	}
	slog.InfoContext(ctx, "subscription added",
		"user_id", l.userID, "subscription_id", sub.ID, "name", sub.Name)
	return sub, nil
}

// Update merges the patch into the identified subscription, recomputing the
// canonical cost when cost or currency change, and persists. Applying the
// same patch twice yields the same record.
func (l *Ledger) Update(ctx context.Context, id string, p Patch) (core.Subscription, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return core.Subscription{}, ErrNotFound
	}

	merged := l.subs[idx]
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.Cost != nil {
		merged.Cost = *p.Cost
	}
	if p.Currency != nil {
		merged.Currency = *p.Currency
	}
	if p.BillingCycle != nil {
		merged.BillingCycle = *p.BillingCycle
	}
	if p.RenewalDate != nil {
		merged.RenewalDate = p.RenewalDate
	}
	if p.Category != nil {
		merged.Category = *p.Category
	}
	if p.Status != nil {
		merged.Status = *p.Status
	}
	if p.Notes != nil {
		merged.Notes = *p.Notes
	}
	if merged.BillingCycle == core.OneTime {
		merged.RenewalDate = nil
	}
	if err := merged.Validate(); err != nil {
		return core.Subscription{}, err
	}

	if p.Cost != nil || p.Currency != nil {
		canonical, err := core.ToCanonical(merged.Cost, merged.Currency, l.rates)
		if err != nil {
			return core.Subscription{}, err
		}
		merged.CostInINR = canonical
	}

	prev := l.subs
	next := make([]core.Subscription, len(prev))
	copy(next, prev)
	next[idx] = merged
	l.subs = next

	if err := l.persist(ctx); err != nil {
		l.subs = prev
		return core.Subscription{}, err
	}
	slog.InfoContext(ctx, "subscription updated",
		"user_id", l.userID, "subscription_id", id)
	return merged, nil
}

// Remove deletes the identified subscription and persists.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}

	prev := l.subs
	next := make([]core.Subscription, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	l.subs = next

	if err := l.persist(ctx); err != nil {
		l.subs = prev
		return err
	}
	slog.InfoContext(ctx, "subscription removed",
		"user_id", l.userID, "subscription_id", id)
	return nil
}

// Discard drops the in-memory snapshot, used on logout.
func (l *Ledger) Discard() {
	l.subs = nil
}

func (l *Ledger) indexOf(id string) int {
	for i, s := range l.subs {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) persist(ctx context.Context) error {
	snapshot := l.subs
	if snapshot == nil {
		snapshot = []core.Subscription{}
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode subscriptions for %s: %w", l.userID, err)
	}
	return l.store.Set(ctx, kv.SubsKey(l.userID), string(raw))
}
