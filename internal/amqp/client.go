package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Client publishes renewal alerts and ledger-change events to a direct
// exchange, one durable queue per message kind.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	alertQueue   string
	eventQueue   string
}

func NewClient(url, exchangeName, alertQueue, eventQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		alertQueue:   alertQueue,
		eventQueue:   eventQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.alertQueue, c.eventQueue} {
		if _, err := c.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		// Routing key matches the queue name on a direct exchange.
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishRenewalAlert publishes one upcoming-renewal notification.
func (c *Client) PublishRenewalAlert(ctx context.Context, msg *RenewalAlertMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := c.publish(ctx, c.alertQueue, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "published renewal alert",
		"user_id", msg.UserID,
		"subscription_id", msg.SubscriptionID,
		"days_until_renewal", msg.DaysUntilRenewal,
		"level", msg.Level)
	return nil
}

// PublishLedgerChange publishes a ledger mutation event.
func (c *Client) PublishLedgerChange(ctx context.Context, userID, subscriptionID, action string) error {
	msg := &LedgerChangedMessage{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Action:         action,
		Timestamp:      time.Now(),
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	return c.publish(ctx, c.eventQueue, body)
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", routingKey, err)
	}
	return nil
}

// ConsumeRenewalAlerts delivers alert messages to handler until ctx is
// cancelled. Messages that fail to decode are rejected without requeue;
// handler errors requeue the delivery.
func (c *Client) ConsumeRenewalAlerts(ctx context.Context, handler func(*RenewalAlertMessage) error) error {
	msgs, err := c.channel.Consume(
		c.alertQueue, // queue
		"",           // consumer
		false,        // auto-ack (we want manual ack)
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "consuming renewal alerts", "queue", c.alertQueue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := RenewalAlertMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "failed to decode alert", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "alert handler failed",
					"error", err, "subscription_id", msg.SubscriptionID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
