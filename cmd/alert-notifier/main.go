// alert-notifier consumes renewal alerts from the queue and hands them to
// the notification sink. Mail and push delivery live outside this
// repository; the sink here records each alert through the structured log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"subsentry/internal/amqp"
	"subsentry/internal/config"
	applog "subsentry/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting alert-notifier")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPAlertQueue, cfg.AMQPEventQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	notify := func(msg *amqp.RenewalAlertMessage) error {
		logger.InfoContext(ctx, "renewal alert delivered",
			applog.FieldUserID, msg.UserID,
			applog.FieldSubscriptionID, msg.SubscriptionID,
			applog.FieldRenewalDate, msg.RenewalDate,
			applog.FieldAlertLevel, msg.Level,
			"days_until_renewal", msg.DaysUntilRenewal,
			"name", msg.Name)
		return nil
	}

	logger.Info("Consuming renewal alerts", "queue", cfg.AMQPAlertQueue)
	if err := amqpClient.ConsumeRenewalAlerts(ctx, notify); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Alert notifier stopped gracefully")
}
