package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentacar/internal/app/bootstrap"
	"rentacar/internal/infra/config"
	ginserver "rentacar/internal/infra/http/gin"
	"rentacar/internal/infra/obs"
	"rentacar/internal/infra/scheduler"
	"rentacar/internal/infra/security"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := obs.NewLogger(os.Getenv("APP_ENV"))
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rentacar stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("rentacar stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	if err := loadCarFixtures(ctx, store.deps.UoWFactory, cfg.CarsFixtures, cfg.Currency, logger); err != nil {
		logger.Warn("car fixtures load failed", "error", err, "path", cfg.CarsFixtures)
	}

	store.deps.Currency = cfg.Currency
	store.deps.Logger = logger
	buses := bootstrap.Build(store.deps)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if store.relay == nil {
			return
		}
		if err := store.relay.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox relay stopped", "error", err)
		}
	}()

	cron := scheduler.New(logger, 5*time.Minute)
	if err := cron.Every(cfg.ReminderSchedule, buses.Reminder); err != nil {
		return err
	}
	cron.Start(workerCtx)

	limiter := ginserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	verifier := security.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready:   store.ready,
		Timeout: 2 * time.Second,
	}, ginserver.Handlers{
		Cars:           ginserver.CarHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Rentals:        ginserver.RentalHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Verifier: verifier, Logger: logger}.Handle,
		RateLimit:      limiter.Middleware(),
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if err := cron.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", "error", err)
	}
	cancelWorkers()
	<-workerDone
	return runErr
}
