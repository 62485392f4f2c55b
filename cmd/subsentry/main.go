package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subsentry/internal/amqp"
	"subsentry/internal/config"
	"subsentry/internal/export"
	exportgoogle "subsentry/internal/export/google"
	apphttp "subsentry/internal/http"
	"subsentry/internal/kv"
	kvmem "subsentry/internal/kv/memory"
	kvsqlite "subsentry/internal/kv/sqlite"
	applog "subsentry/internal/log"
	"subsentry/internal/services"
	"subsentry/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		store = kvmem.New()
		logger.Info("Initialized memory backend")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPAlertQueue, cfg.AMQPEventQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	var exporter export.SnapshotExporter
	if cfg.GoogleSpreadsheetID != "" {
		sheetExporter, err := exportgoogle.NewFromEnv(ctx)
		if err != nil {
			logger.Warn("Failed to initialize Sheets exporter, continuing without export", "error", err)
		} else {
			exporter = sheetExporter
			logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	sessions := session.NewManager(store)
	if user := sessions.RestoreSession(ctx); user != nil {
		logger.Info("Restored previous session", "user_id", user.ID)
	}

	subscriptions := services.NewSubscriptionService(store, cfg.Rates(), publisher, exporter)

	srv := apphttp.NewServer(":"+cfg.Port, logger, sessions, subscriptions)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting subsentry server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
