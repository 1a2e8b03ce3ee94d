package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/tanbank/tanbank/internal/adapter/http"
	"github.com/tanbank/tanbank/internal/adapter/http/handler"
	postgresRepo "github.com/tanbank/tanbank/internal/adapter/repository/postgres"
	redisRepo "github.com/tanbank/tanbank/internal/adapter/repository/redis"
	"github.com/tanbank/tanbank/internal/infrastructure/auth"
	"github.com/tanbank/tanbank/internal/infrastructure/config"
	"github.com/tanbank/tanbank/internal/infrastructure/logger"
	"github.com/tanbank/tanbank/internal/infrastructure/metrics"
	"github.com/tanbank/tanbank/internal/infrastructure/postgres"
	"github.com/tanbank/tanbank/internal/infrastructure/redis"
	"github.com/tanbank/tanbank/internal/scheduler"
	"github.com/tanbank/tanbank/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations", appLogger); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	retrier := postgresRepo.NewRetrier(appLogger)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	tanRepo := postgresRepo.NewTANChallengeRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	orderRepo := postgresRepo.NewStandingOrderRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	appMetrics := metrics.New()

	// Initialize use cases
	tanManager := usecase.NewTANManager(txManager, tanRepo, transferRepo, idGen, usecase.TANConfig{
		CodeLength:  cfg.TANCodeLength,
		TTL:         cfg.TANTTL,
		MaxAttempts: cfg.TANMaxAttempts,
	}, appLogger)

	accountUC := usecase.NewAccountUseCase(accountRepo, entryRepo, idGen)
	transferUC := usecase.NewTransferUseCase(txManager, retrier, accountRepo, transferRepo, entryRepo, tanManager, idGen, appMetrics)
	p2pUC := usecase.NewP2PUseCase(txManager, retrier, accountRepo, transferRepo, entryRepo, idGen, appMetrics)
	orderUC := usecase.NewStandingOrderUseCase(txManager, retrier, accountRepo, transferRepo, entryRepo, orderRepo, idGen, usecase.SchedulerPolicy{
		MaxConsecutiveFailures: cfg.SchedulerMaxFailures,
	}, appMetrics)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:       handler.NewAccountHandler(accountUC),
		TransferHandler:      handler.NewTransferHandler(transferUC, cfg.TANDebugDelivery),
		P2PHandler:           handler.NewP2PHandler(p2pUC),
		StandingOrderHandler: handler.NewStandingOrderHandler(orderUC),
		LedgerHandler:        handler.NewLedgerHandler(ledgerUC),
		HealthHandler:        handler.NewHealthHandler(pool, redisClient),
		JWTManager:           jwtManager,
		IdempotencyStore:     idempotencyStore,
		IdempotencyTTL:       cfg.IdempotencyTTL,
		Metrics:              appMetrics,
		Logger:               appLogger,
	})

	// Start the standing order scheduler
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()

	sched := scheduler.New(orderUC, tanManager, cfg.SchedulerInterval, appLogger, appMetrics)
	go sched.Run(schedulerCtx)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopScheduler()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
