package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/account"
	"github.com/fjod/storefront/internal/api"
	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/events"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/telemetry"
	"github.com/fjod/storefront/pkg/logger"
)

const (
	serviceName     = "storefront"
	productCacheTTL = 60 * time.Second
	checkoutLockTTL = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Options{Service: serviceName, Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	if err := run(cfg, zl); err != nil {
		zl.Fatal("storefront stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.Config{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}, zl)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	checks := map[string]h.Pinger{}

	// Redis is optional; without it caches are no-ops and the checkout gate is in-process.
	var (
		redisClient  *redis.Client
		cartCache    cache.CartCache    = cache.NopCartCache{}
		productCache cache.ProductCache = cache.NopProductCache{}
		gate         checkout.Gate      = checkout.NewMemoryGate()
	)
	if cfg.Redis.Addr != "" {
		redisClient = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, redisClient); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		zl.Info("Redis ping succeeded", zap.String("addr", cfg.Redis.Addr))

		cartCache = cache.NewRedisCartCache(redisClient)
		productCache = cache.NewRedisProductCache(redisClient, productCacheTTL)
		gate = checkout.NewRedisGate(cache.NewRedisLock(redisClient, checkoutLockTTL))
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
	}

	var (
		mongoDB *mongo.Database
		repo    repository.CartRepository = repository.NewMemoryRepository()
	)
	if cfg.Mongo.URI != "" {
		mongoDB, err = repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		mongoRepo := repository.NewMongoRepository(mongoDB)
		if err := mongoRepo.CreateIndexes(ctx); err != nil {
			return fmt.Errorf("create cart indexes: %w", err)
		}
		repo = mongoRepo
		zl.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
	} else {
		zl.Warn("no Mongo URI configured, carts are kept in memory")
	}

	ledger, err := repository.NewLedger(cfg.Ledger.Driver, cfg.Ledger.DSN)
	if err != nil {
		return fmt.Errorf("open checkout ledger: %w", err)
	}
	if err := ledger.RunMigrations(); err != nil {
		return fmt.Errorf("migrate checkout ledger: %w", err)
	}
	checks["ledger"] = ledger.Ping

	client := api.NewClient(cfg.API.Endpoint, api.Options{
		Timeout:             cfg.API.Timeout,
		BreakerFailures:     cfg.API.BreakerFailures,
		BreakerOpenDuration: cfg.API.BreakerOpenDuration,
	}, zl)

	storage := cart.NewStorage(repo, cartCache, zl)
	checks["carts"] = storage.Ping

	products := catalog.NewService(client, productCache, zl)
	accounts := account.NewService(client, products, zl)
	orders := checkout.NewService(client, checkout.StoredCarts(storage), ledger, gate, zl)

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()

	var poller *events.OutboxPoller
	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		poller = events.NewOutboxPoller(ledger, writer, cfg.Kafka.PollInterval, zl)
		go poller.Run(pollCtx)
		zl.Info("Outbox poller started", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		zl.Warn("no Kafka brokers configured, order events stay in the outbox")
	}

	router := h.NewRouter(h.Deps{
		Carts:         storage,
		Catalog:       products,
		Accounts:      accounts,
		Checkout:      orders,
		Sessions:      h.NewSessions(client, cfg.SecureCookies, zl),
		HealthChecks:  checks,
		Log:           zl,
		Timeout:       cfg.RequestTimeout,
		MaxBodySize:   cfg.MaxRequestBodySize,
		SecureCookies: cfg.SecureCookies,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("Storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	zl.Info("Shutting down storefront...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	stopPolling()
	if poller != nil {
		if err := poller.Close(); err != nil {
			zl.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
	if err := ledger.Close(); err != nil {
		zl.Warn("failed to close ledger", zap.Error(err))
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if mongoDB != nil {
		mongoDB.Client().Disconnect(shutdownCtx)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Warn("failed to flush traces", zap.Error(err))
	}

	zl.Info("Storefront stopped")
	return nil
}
