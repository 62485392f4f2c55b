package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"subsentry/internal/amqp"
	"subsentry/internal/core"
	"subsentry/internal/kv"
	"subsentry/internal/ledger"
)

// AlertPublisher delivers renewal alerts to downstream consumers.
type AlertPublisher interface {
	PublishRenewalAlert(ctx context.Context, msg *amqp.RenewalAlertMessage) error
}

// AlertProcessor scans every registered user's ledger and publishes one
// message per subscription renewing within the alert window.
type AlertProcessor struct {
	store       kv.Store
	rates       core.RateTable
	publisher   AlertPublisher
	concurrency int
}

func NewAlertProcessor(store kv.Store, rates core.RateTable, publisher AlertPublisher, concurrency int) *AlertProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AlertProcessor{
		store:       store,
		rates:       rates,
		publisher:   publisher,
		concurrency: concurrency,
	}
}

// ProcessDueAlerts runs one scan pass and returns the number of alerts
// published. A failing user stops the pass; alerts already published for
// other users stay published.
func (p *AlertProcessor) ProcessDueAlerts(ctx context.Context, today core.Date) (int, error) {
	users, err := p.loadUsers(ctx)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "scanning ledgers for upcoming renewals",
		"users", len(users), "as_of", today.String())

	var published atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, user := range users {
		g.Go(func() error {
			n, err := p.processUser(ctx, user.ID, today)
			if err != nil {
				return fmt.Errorf("user %s: %w", user.ID, err)
			}
			published.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(published.Load()), err
	}

	slog.InfoContext(ctx, "renewal scan complete", "published", published.Load())
	return int(published.Load()), nil
}

func (p *AlertProcessor) processUser(ctx context.Context, userID string, today core.Date) (int, error) {
	l := ledger.New(p.store, p.rates, userID)
	if err := l.Load(ctx); err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	alerts := core.RenewalAlerts(l.List(), today)
	for _, alert := range alerts {
		msg := &amqp.RenewalAlertMessage{
			UserID:           userID,
			SubscriptionID:   alert.Subscription.ID,
			Name:             alert.Subscription.Name,
			Category:         string(alert.Subscription.Category),
			RenewalDate:      alert.Subscription.RenewalDate.String(),
			DaysUntilRenewal: alert.DaysUntilRenewal,
			Level:            alert.Level,
			Timestamp:        time.Now().UTC(),
		}
		if err := p.publisher.PublishRenewalAlert(ctx, msg); err != nil {
			return 0, fmt.Errorf("publish alert for %s: %w", alert.Subscription.ID, err)
		}
	}
	return len(alerts), nil
}

func (p *AlertProcessor) loadUsers(ctx context.Context) ([]core.User, error) {
	raw, ok, err := p.store.Get(ctx, kv.UsersKey)
	if err != nil {
		return nil, fmt.Errorf("read user directory: %w", err)
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
