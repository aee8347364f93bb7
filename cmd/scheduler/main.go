package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dagfinn/faktura/internal"
	"github.com/dagfinn/faktura/internal/activity"
	"github.com/dagfinn/faktura/internal/email"
	"github.com/dagfinn/faktura/internal/payment"
	"github.com/dagfinn/faktura/internal/pdf"
	"github.com/dagfinn/faktura/internal/postgres"
	"github.com/dagfinn/faktura/internal/service"
	"github.com/dagfinn/faktura/internal/telemetry"
	"github.com/dagfinn/faktura/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Stores
	invoiceStore := postgres.NewInvoiceStore(pool)
	userStore := postgres.NewUserStore(pool)
	activityStore := postgres.NewActivityStore(pool)

	metrics := telemetry.NewMetrics("faktura")
	recorder := activity.NewRecorder(activityStore, logger)

	// PDF rendering degrades to no attachment when Chrome is missing or
	// rendering is switched off.
	var renderer pdf.Renderer = pdf.Disabled{}
	if !cfg.PDF.Disabled {
		chrome := pdf.NewChromeRenderer(cfg.PDF.ChromePath, 45*time.Second)
		if chrome.Available() {
			renderer = chrome
			logger.Info("PDF rendering enabled")
		} else {
			logger.Warn("No Chrome/Chromium binary found, invoices will be sent without PDF attachments")
		}
	}

	payments := payment.NewProvider(
		cfg.Payment.StripeSuccessURL,
		cfg.Payment.StripeCancelURL,
		cfg.Payment.PayPalBaseURL,
		cfg.Payment.PayPalReturnURL,
		cfg.Payment.PayPalCancelURL,
	)

	defaultSender := email.DefaultSender{
		Email:    cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
	}

	pipeline := service.NewDeliveryPipeline(
		userStore,
		invoiceStore,
		recorder,
		renderer,
		payments,
		defaultSender,
		nil,
		logger,
	)

	engine := service.NewEngine(invoiceStore, recorder, pipeline, metrics, logger)

	// Poll every 10 seconds in test mode so sub-minute frequencies fire.
	interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute
	if cfg.Scheduler.TestMode {
		interval = 10 * time.Second
		logger.Warn("Scheduler running in test mode", "interval", interval.String())
	}

	w := worker.New(engine, interval, logger)

	// Observability surface: health and metrics only.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", metrics.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("Observability server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Observability server failed", "error", err)
		}
	}()

	return w.Start(ctx)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
