package services

import (
	"context"
	"fmt"
	"log/slog"

	"subsentry/internal/core"
	"subsentry/internal/export"
	"subsentry/internal/kv"
	"subsentry/internal/ledger"
)

// EventPublisher publishes ledger mutation events. Publishing is
// fire-and-forget: a failure is logged and never surfaced to the caller.
type EventPublisher interface {
	PublishLedgerChange(ctx context.Context, userID, subscriptionID, action string) error
}

// SubscriptionService orchestrates ledger mutations with event publishing
// and snapshot export. The publisher and exporter are optional.
type SubscriptionService struct {
	store     kv.Store
	rates     core.RateTable
	publisher EventPublisher
	exporter  export.SnapshotExporter
}

func NewSubscriptionService(store kv.Store, rates core.RateTable, publisher EventPublisher, exporter export.SnapshotExporter) *SubscriptionService {
	return &SubscriptionService{
		store:     store,
		rates:     rates,
		publisher: publisher,
		exporter:  exporter,
	}
}

func (s *SubscriptionService) openLedger(ctx context.Context, userID string) (*ledger.Ledger, error) {
	l := ledger.New(s.store, s.rates, userID)
	if err := l.Load(ctx); err != nil {
		return nil, fmt.Errorf("load ledger for %s: %w", userID, err)
	}
	return l, nil
}

func (s *SubscriptionService) List(ctx context.Context, userID string) ([]core.Subscription, error) {
	l, err := s.openLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.List(), nil
}

// ListSorted returns the user's subscriptions ordered by opt.
func (s *SubscriptionService) ListSorted(ctx context.Context, userID string, opt core.SortOption) ([]core.Subscription, error) {
	subs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.SortSubscriptions(subs, opt), nil
}

func (s *SubscriptionService) Add(ctx context.Context, userID string, in ledger.Input) (core.Subscription, error) {
	l, err := s.openLedger(ctx, userID)
	if err != nil {
		return core.Subscription{}, err
	}
	sub, err := l.Add(ctx, in)
	if err != nil {
		return core.Subscription{}, err
	}
	s.afterMutation(ctx, l, sub.ID, "added")
	return sub, nil
}

func (s *SubscriptionService) Update(ctx context.Context, userID, id string, p ledger.Patch) (core.Subscription, error) {
	l, err := s.openLedger(ctx, userID)
	if err != nil {
		return core.Subscription{}, err
	}
	sub, err := l.Update(ctx, id, p)
	if err != nil {
		return core.Subscription{}, err
	}
	s.afterMutation(ctx, l, sub.ID, "updated")
	return sub, nil
}

func (s *SubscriptionService) Remove(ctx context.Context, userID, id string) error {
	l, err := s.openLedger(ctx, userID)
	if err != nil {
		return err
	}
	if err := l.Remove(ctx, id); err != nil {
		return err
	}
	s.afterMutation(ctx, l, id, "removed")
	return nil
}

// Summary bundles the derived analytics for one user's ledger as of today.
type Summary struct {
	Totals     core.Totals          `json:"totals"`
	ByCategory []core.CategoryShare `json:"categoryBreakdown"`
	Alerts     []core.Alert         `json:"renewalAlerts"`
}

func (s *SubscriptionService) Summarize(ctx context.Context, userID string, today core.Date) (Summary, error) {
	subs, err := s.List(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Totals:     core.ComputeTotals(subs),
		ByCategory: core.CategoryBreakdown(subs),
		Alerts:     core.RenewalAlerts(subs, today),
	}, nil
}

// ExportSnapshot pushes the user's current ledger to the configured
// exporter on demand.
func (s *SubscriptionService) ExportSnapshot(ctx context.Context, userID string) error {
	if s.exporter == nil {
		return fmt.Errorf("no exporter configured")
	}
	subs, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	return s.exporter.ExportSnapshot(ctx, userID, subs)
}

// afterMutation runs the side effects of a committed mutation. The ledger
// write already succeeded; failures here are logged only.
func (s *SubscriptionService) afterMutation(ctx context.Context, l *ledger.Ledger, subscriptionID, action string) {
	if s.publisher != nil {
		if err := s.publisher.PublishLedgerChange(ctx, l.UserID(), subscriptionID, action); err != nil {
			slog.ErrorContext(ctx, "failed to publish ledger change",
				"user_id", l.UserID(), "subscription_id", subscriptionID,
				"action", action, "error", err)
		}
	}
	if s.exporter != nil {
		if err := s.exporter.ExportSnapshot(ctx, l.UserID(), l.List()); err != nil {
			slog.ErrorContext(ctx, "failed to export snapshot",
				"user_id", l.UserID(), "error", err)
		}
	}
}
