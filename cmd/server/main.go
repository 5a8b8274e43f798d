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

	"github.com/abekov/todo-api/config"
	"github.com/abekov/todo-api/internal/email"
	"github.com/abekov/todo-api/internal/health"
	"github.com/abekov/todo-api/internal/infrastructure/postgres"
	ctxlog "github.com/abekov/todo-api/internal/log"
	"github.com/abekov/todo-api/internal/metrics"
	httptransport "github.com/abekov/todo-api/internal/transport/http"
	"github.com/abekov/todo-api/internal/transport/http/handler"
	"github.com/abekov/todo-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := postgres.ApplyMigrations(cfg.DatabaseURL); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	var emailSender email.Sender
	if cfg.Env == "local" {
		emailSender = email.NewLogSender(logger)
	} else {
		emailSender = email.NewResendSender(cfg.ResendAPIKey, cfg.ResendFrom)
	}

	// Users & sessions
	userRepo := postgres.NewUserRepository(pool)
	authUsecase := usecase.NewAuthUsecase(userRepo, emailSender, []byte(cfg.JWTSecret), logger)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	// Todos
	todoRepo := postgres.NewTodoRepository(pool)
	todoUsecase := usecase.NewTodoUsecase(todoRepo)
	todoHandler := handler.NewTodoHandler(todoUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, todoHandler, authUsecase),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	// Expired sessions are useless once their JWT has expired; sweep them out
	// so user_tokens does not grow without bound.
	housekeeping := cron.New()
	_, err = housekeeping.AddFunc("@hourly", func() {
		pruneCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cutoff := time.Now().Add(-authUsecase.SessionTTL())
		n, err := userRepo.PruneTokens(pruneCtx, cutoff)
		if err != nil {
			logger.Error("prune sessions", "error", err)
			return
		}
		if n > 0 {
			metrics.SessionsPrunedTotal.Add(float64(n))
			logger.Info("pruned expired sessions", "count", n)
		}
	})
	if err != nil {
		stop()
		log.Fatalf("housekeeping: %v", err)
	}
	housekeeping.Start()

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

	<-housekeeping.Stop().Done()

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
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
