package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subsentry/internal/amqp"
	"subsentry/internal/config"
	"subsentry/internal/core"
	"subsentry/internal/kv"
	kvmem "subsentry/internal/kv/memory"
	kvsqlite "subsentry/internal/kv/sqlite"
	applog "subsentry/internal/log"
	"subsentry/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting renewal-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var store kv.Store
	switch cfg.DataBackend {
	case "sqlite":
		sqliteStore, err := kvsqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	default:
		store = kvmem.New()
		logger.Warn("Memory backend holds no persisted ledgers; scans will find nothing")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPAlertQueue, cfg.AMQPEventQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	processor := services.NewAlertProcessor(store, cfg.Rates(), amqpClient, cfg.AlertConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Renewal scan configured",
		"interval", cfg.AlertInterval,
		"concurrency", cfg.AlertConcurrency)

	runScan := func(now time.Time) {
		count, err := processor.ProcessDueAlerts(ctx, core.DateOf(now.UTC()))
		if err != nil {
			logger.Error("Renewal scan failed", "error", err, "published", count)
			return
		}
		logger.Info("Renewal scan complete", "published", count)
	}

	// One scan immediately on startup, then on every tick.
	runScan(time.Now())

	ticker := time.NewTicker(cfg.AlertInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Renewal worker stopped gracefully")
			return
		case now := <-ticker.C:
			runScan(now)
		}
	}
}
