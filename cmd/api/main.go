package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LPredmore/valorwell-first-ehr-sub007/cmd/mainconfig"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/api/router"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/app/bootstrap"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/availability"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/bookings"
	appconfig "github.com/LPredmore/valorwell-first-ehr-sub007/internal/config"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/http/handlers"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/notify"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/observability/metrics"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduling API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	settingsStore := bootstrap.BuildSettingsStore(redisClient, cfg, logger)

	metricsHandler, schedMetrics := setupSchedulingMetrics()

	// Initialize stores and services
	store := availability.NewStore(pool)
	notifier := notify.NewService(buildEmailSender(ctx, cfg, logger), logger)

	availabilitySvc := availability.NewService(store, store, settingsStore, logger, schedMetrics)
	bookingSvc := bookings.NewService(store, settingsStore, notifier, logger, schedMetrics)

	// Initialize handlers
	availabilityHandler := handlers.NewAvailabilityHandler(handlers.AvailabilityConfig{
		Service: availabilitySvc,
		Logger:  logger,
	})
	appointmentsHandler := handlers.NewAppointmentsHandler(handlers.AppointmentsConfig{
		Service: bookingSvc,
		Logger:  logger,
	})
	scheduleAdminHandler := handlers.NewScheduleAdminHandler(handlers.ScheduleAdminConfig{
		Service:  availabilitySvc,
		Store:    store,
		Settings: settingsStore,
		Logger:   logger,
	})

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		Availability:       availabilityHandler,
		Appointments:       appointmentsHandler,
		ScheduleAdmin:      scheduleAdminHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// connectPostgresPool opens the pgx pool, or returns nil when no URL is
// configured or the database is unreachable.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// setupSchedulingMetrics registers the scheduling collectors on a dedicated
// registry and returns its scrape handler.
func setupSchedulingMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	schedMetrics := metrics.NewSchedulingMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), schedMetrics
}

// buildEmailSender selects the notification transport. A nil return means
// notifications are logged, not sent.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty, email disabled")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("AWS config load failed, email disabled", "error", err)
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
		}, logger)
	default:
		return nil
	}
}
