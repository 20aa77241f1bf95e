package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ancodefactory/postpilot/config"
	"github.com/ancodefactory/postpilot/internal/dedupe"
	"github.com/ancodefactory/postpilot/internal/email"
	"github.com/ancodefactory/postpilot/internal/health"
	"github.com/ancodefactory/postpilot/internal/infrastructure/postgres"
	ctxlog "github.com/ancodefactory/postpilot/internal/log"
	"github.com/ancodefactory/postpilot/internal/metrics"
	"github.com/ancodefactory/postpilot/internal/publisher"
	"github.com/ancodefactory/postpilot/internal/queue"
	"github.com/ancodefactory/postpilot/internal/resolver"
	"github.com/ancodefactory/postpilot/internal/scheduler"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	jobRepo := postgres.NewJobRepository(pool)
	attemptRepo := postgres.NewAttemptRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool, logger, cfg.MaxAttempts)
	variantRepo := postgres.NewVariantRepository(pool)
	publishedRepo := postgres.NewPublishedRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)

	res, err := resolver.New(cfg.RRuleCacheSize, logger)
	if err != nil {
		stop()
		log.Fatalf("resolver: %v", err)
	}

	var dedupeStore dedupe.Store
	var dedupePinger health.Pinger
	if cfg.DryRun {
		dedupeStore = dedupe.NewMemoryStore()
	} else {
		redisStore, err := dedupe.NewRedisStoreFromURL(cfg.DedupeURL)
		if err != nil {
			stop()
			log.Fatalf("dedupe store: %v", err)
		}
		dedupeStore = redisStore
		dedupePinger = redisStore
	}

	var pub publisher.Publisher
	if cfg.DryRun {
		pub = publisher.NewDryRunPublisher()
		logger.Warn("dry run mode: jobs will not be published to a real platform")
	} else {
		pub = publisher.NewHTTPPublisher(
			cfg.PublisherBaseURL+"/posts",
			cfg.PublisherBaseURL+"/posts/metrics",
			cfg.PublisherToken,
			cfg.PublishRatePerMin,
			logger,
		)
	}

	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	q := queue.NewDelayedQueue(scheduler.NewQueueHandler(jobRepo, logger))
	go q.Run(ctx)

	tick := scheduler.NewTick(
		scheduleRepo, variantRepo, historyRepo, res, q, logger,
		time.Duration(cfg.TickIntervalSec)*time.Second,
	)
	go tick.Start(ctx)

	postRepo := postgres.NewPostRepository(pool)

	worker := scheduler.NewWorker(
		jobRepo, variantRepo, postRepo, publishedRepo, attemptRepo,
		dedupeStore, cfg.DedupeLockTTL,
		pub, emailSender, cfg.AlertTo,
		logger, time.Second, cfg.WorkerCount,
	)
	go worker.Start(ctx)

	sweeper := scheduler.NewSweeper(
		jobRepo, dedupeStore, logger,
		time.Duration(cfg.SweeperIntervalSec)*time.Second,
		cfg.StaleEnqueuedTimeout, cfg.SweeperCooldown,
	)
	go sweeper.Start(ctx)

	metrics.Register()
	checker := health.NewChecker(pool, dedupePinger, logger, prometheus.DefaultRegisterer)
	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("scheduler shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
