package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"notify-engine/internal/domain/entity"
	pgRepo "notify-engine/internal/infra/adapter/persistence/postgres"
	rediscache "notify-engine/internal/infra/cache/redis"
	"notify-engine/internal/infra/db"
	"notify-engine/internal/infra/renderer"
	"notify-engine/internal/infra/sender"
	workerPkg "notify-engine/internal/infra/worker"
	"notify-engine/internal/observability/logging"
	pkgconfig "notify-engine/internal/pkg/config"
	"notify-engine/internal/repository"
	"notify-engine/internal/resilience/retry"
	"notify-engine/internal/usecase/dispatch"
	"notify-engine/internal/usecase/preference"
	"notify-engine/internal/usecase/schedule"
)

func main() {
	// .env is a local development convenience; deployments use real env vars.
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	configMetrics := pkgconfig.NewConfigMetrics("worker")
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, configMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.Duration("scan_interval", workerConfig.ScanInterval),
		slog.Duration("retry_scan_interval", workerConfig.RetryScanInterval),
		slog.Int("scan_batch_size", workerConfig.ScanBatchSize),
		slog.Int("retry_batch_size", workerConfig.RetryBatchSize),
		slog.Int("max_concurrent", workerConfig.MaxConcurrent),
		slog.Int("max_retries", workerConfig.MaxRetries),
		slog.Duration("retry_delay", workerConfig.RetryDelay),
		slog.Duration("process_timeout", workerConfig.ProcessTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	notificationRepo := pgRepo.NewNotificationRepo(database)
	attemptRepo := pgRepo.NewAttemptRepo(database)
	preferenceRepo := setupPreferenceStore(ctx, logger, database)

	resolver := preference.NewService(preferenceRepo, logger)

	contentRenderer, err := renderer.NewTemplateRenderer(renderer.Builtin())
	if err != nil {
		logger.Error("failed to parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	registry := setupSenders(logger)
	logger.Info("channel senders initialized", slog.Any("channels", registry.Kinds()))

	dispatcher := dispatch.NewService(
		notificationRepo,
		attemptRepo,
		resolver,
		contentRenderer,
		registry,
		dispatch.Config{
			MaxRetries:     workerConfig.MaxRetries,
			ProcessTimeout: workerConfig.ProcessTimeout,
		},
		logger,
	)

	startMetricsServer(ctx, logger, workerConfig.MetricsPort, registry)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	scheduler := schedule.NewScheduler(
		notificationRepo,
		dispatcher,
		retry.Policy{MaxRetries: workerConfig.MaxRetries, Delay: workerConfig.RetryDelay},
		schedule.Config{
			ScanInterval:      workerConfig.ScanInterval,
			RetryScanInterval: workerConfig.RetryScanInterval,
			ScanBatchSize:     workerConfig.ScanBatchSize,
			RetryBatchSize:    workerConfig.RetryBatchSize,
			MaxConcurrent:     workerConfig.MaxConcurrent,
		},
		logger,
	)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	healthServer.SetReady(true)
	logger.Info("worker ready")

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Error("scheduler stop failed", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// initDatabase opens the connection pool and applies migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("migrations failed", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupPreferenceStore wraps the postgres preference repository with a redis
// read-through cache when REDIS_ADDR is set. The cache is an optimization
// only; without it every resolve hits postgres.
func setupPreferenceStore(ctx context.Context, logger *slog.Logger, database *sql.DB) repository.PreferenceRepository {
	store := pgRepo.NewPreferenceRepo(database)

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		logger.Info("preference cache disabled")
		return store
	}

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			redisDB = parsed
		}
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup, cache degrades to pass-through",
			slog.String("addr", addr),
			slog.Any("error", err))
	}

	ttl := 5 * time.Minute
	if raw := os.Getenv("PREFERENCE_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	logger.Info("preference cache enabled",
		slog.String("addr", addr),
		slog.Duration("ttl", ttl))
	return rediscache.NewPreferenceCache(store, client, ttl, logger)
}

// setupSenders builds the channel sender registry from the environment.
// Channels without provider credentials get the no-op sender, which keeps
// routing and lifecycle behavior intact in minimal deployments.
func setupSenders(logger *slog.Logger) *dispatch.SenderRegistry {
	senders := []dispatch.ChannelSender{
		sender.NewWebhookSender(entity.ChannelWebhook, sender.DefaultWebhookConfig()),
		sender.NewWebhookSender(entity.ChannelChat, sender.DefaultWebhookConfig()),
		sender.NewNoopSender(entity.ChannelSMS, logger),
		sender.NewNoopSender(entity.ChannelPush, logger),
	}

	if host := os.Getenv("SMTP_HOST"); host != "" {
		port := 587
		if raw := os.Getenv("SMTP_PORT"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				port = parsed
			}
		}
		senders = append(senders, sender.NewEmailSender(sender.SMTPConfig{
			Host:     host,
			Port:     port,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     pkgconfig.LoadEnvString("SMTP_FROM", "no-reply@notify.local"),
			Timeout:  10 * time.Second,
		}))
		logger.Info("email sender initialized", slog.String("host", host))
	} else {
		senders = append(senders, sender.NewNoopSender(entity.ChannelEmail, logger))
		logger.Info("email sender disabled, using noop")
	}

	return dispatch.NewSenderRegistry(senders...)
}
