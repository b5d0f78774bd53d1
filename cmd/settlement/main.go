package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lokroom/settlement/internal/application/services"
	"github.com/lokroom/settlement/internal/config"
	"github.com/lokroom/settlement/internal/infrastructure/locker"
	"github.com/lokroom/settlement/internal/infrastructure/notify"
	"github.com/lokroom/settlement/internal/infrastructure/persistence/postgres"
	"github.com/lokroom/settlement/internal/infrastructure/provider"
	"github.com/lokroom/settlement/internal/interfaces/rest/handlers"
	"github.com/lokroom/settlement/internal/interfaces/rest/middleware"
	"github.com/lokroom/settlement/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting settlement service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	bookingRepo := postgres.NewBookingRepository(db.Pool)
	paymentRepo := postgres.NewPaymentRepository(db.Pool)
	disputeRepo := postgres.NewDisputeRepository(db.Pool)
	payoutRepo := postgres.NewPayoutRepository(db.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(db.Pool)

	tokens := provider.NewTokenManager(cfg.Provider)
	providerClient := provider.NewProviderClient(cfg.Provider, tokens)
	retryProviderClient := provider.NewRetryProviderClient(providerClient, cfg.Retry)

	bookingLocker := locker.NewRedisBookingLocker(cfg.Redis, logger)
	defer bookingLocker.Close()

	if err := bookingLocker.Ping(ctx); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	notifier := notify.NewKafkaNotifier(cfg.Kafka, logger)
	defer notifier.Close()

	cancellationService := services.NewCancellationService(
		bookingRepo, paymentRepo, payoutRepo, idempotencyRepo,
		retryProviderClient, bookingLocker, notifier, db.Pool, logger)
	disputeService := services.NewDisputeService(
		bookingRepo, disputeRepo, paymentRepo, payoutRepo, idempotencyRepo,
		retryProviderClient, bookingLocker, notifier, db.Pool, logger)
	payoutService := services.NewPayoutService(
		payoutRepo, bookingLocker, notifier, db.Pool, logger)
	queryService := services.NewQueryService(bookingRepo, disputeRepo, payoutRepo)

	h := handlers.NewHandlers(
		cancellationService,
		disputeService,
		payoutService,
		queryService,
		logger,
	)

	mux := http.NewServeMux()
	h.Routes(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	deadlineWorker := worker.NewDisputeDeadlineWorker(
		disputeService,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		logger,
	)

	releaseWorker := worker.NewPayoutReleaseWorker(
		payoutService,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go deadlineWorker.Start(workerCtx)
	go releaseWorker.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
