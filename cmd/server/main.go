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
	"github.com/ancodefactory/postpilot/internal/health"
	"github.com/ancodefactory/postpilot/internal/infrastructure/postgres"
	ctxlog "github.com/ancodefactory/postpilot/internal/log"
	"github.com/ancodefactory/postpilot/internal/metrics"
	"github.com/ancodefactory/postpilot/internal/resolver"
	httptransport "github.com/ancodefactory/postpilot/internal/transport/http"
	"github.com/ancodefactory/postpilot/internal/transport/http/handler"
	"github.com/ancodefactory/postpilot/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
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
	templateRepo := postgres.NewTemplateRepository(pool)
	variantRepo := postgres.NewVariantRepository(pool)
	postRepo := postgres.NewPostRepository(pool)

	res, err := resolver.New(cfg.RRuleCacheSize, logger)
	if err != nil {
		stop()
		log.Fatalf("resolver: %v", err)
	}

	jobUsecase := usecase.NewJobUsecase(jobRepo, attemptRepo)
	scheduleUsecase := usecase.NewScheduleUsecase(scheduleRepo, jobRepo, variantRepo, postRepo, res)
	templateUsecase := usecase.NewTemplateUsecase(templateRepo, variantRepo)
	postUsecase := usecase.NewPostUsecase(postRepo)
	authUsecase := usecase.NewAuthUsecase(cfg.OperatorEmail, cfg.OperatorPass, []byte(cfg.JWTSecret), cfg.TokenTTL)

	handlers := httptransport.Handlers{
		Auth:     handler.NewAuthHandler(authUsecase, logger),
		Template: handler.NewTemplateHandler(templateUsecase, logger),
		Post:     handler.NewPostHandler(postUsecase, logger),
		Schedule: handler.NewScheduleHandler(scheduleUsecase, logger),
		Job:      handler.NewJobHandler(jobUsecase, logger),
	}

	metrics.Register()
	checker := health.NewChecker(pool, nil, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(handlers, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
