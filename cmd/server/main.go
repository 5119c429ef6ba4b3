package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/finprim/ledger/internal/adapter/http"
	"github.com/finprim/ledger/internal/adapter/http/handler"
	"github.com/finprim/ledger/internal/adapter/http/middleware"
	postgresRepo "github.com/finprim/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/finprim/ledger/internal/adapter/repository/redis"
	"github.com/finprim/ledger/internal/infrastructure/config"
	"github.com/finprim/ledger/internal/infrastructure/eventpublisher"
	"github.com/finprim/ledger/internal/infrastructure/logger"
	"github.com/finprim/ledger/internal/infrastructure/metrics"
	"github.com/finprim/ledger/internal/infrastructure/postgres"
	"github.com/finprim/ledger/internal/infrastructure/redis"
	"github.com/finprim/ledger/internal/usecase"
)

const rateLimiterIdleSweep = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logCfg := logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}
	log.Logger = logger.New(logCfg)
	slogger := logger.NewSlog(logCfg)

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis is optional: without it balance reads go uncached and
	// idempotency falls back to the caller.
	var (
		redisClient      *goredis.Client
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		log.Info().Msg("connected to redis")
	} else {
		log.Warn().Msg("redis not configured, running without balance cache and idempotency")
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	accountIDGen := postgresRepo.NewUUIDGenerator()
	idGen := postgresRepo.NewULIDGenerator()
	retryer := postgresRepo.NewRetrier()

	m := metrics.New()

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, accountIDGen, idGen, m)
	postingUC := usecase.NewPostingUseCase(txManager, accountRepo, transactionRepo, entryRepo, outboxRepo, idGen, retryer, m)
	reversalUC := usecase.NewReversalUseCase(postingUC, transactionRepo, entryRepo, m)
	balanceUC := usecase.NewBalanceUseCase(accountRepo, entryRepo, m)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	transactionHandler := handler.NewTransactionHandler(postingUC, cache)
	reversalHandler := handler.NewReversalHandler(reversalUC, cache)
	entryHandler := handler.NewEntryHandler(balanceUC, cache, cfg.BalanceCacheTTL)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go func() {
			for range time.Tick(rateLimiterIdleSweep) {
				rateLimiter.Cleanup(rateLimiterIdleSweep)
			}
		}()
	}

	// Audit event publisher drains the outbox in the background.
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(slogger),
		Logger:     slogger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     accountHandler,
		TransactionHandler: transactionHandler,
		ReversalHandler:    reversalHandler,
		EntryHandler:       entryHandler,
		LedgerHandler:      ledgerHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		Logger:             log.Logger,
	})

	server := newHTTPServer(cfg, router)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown: drain HTTP first so events from in-flight postings
	// still reach the publisher before it stops.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	stopPublisher()

	log.Info().Msg("server stopped")
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
