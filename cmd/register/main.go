package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openpos/register/internal/api"
	c "github.com/openpos/register/internal/cache"
	"github.com/openpos/register/internal/hold"
	"github.com/openpos/register/internal/poller"
	reg "github.com/openpos/register/internal/register"
	"github.com/openpos/register/internal/store"
)

type Config struct {
	RegisterID      string
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	DefaultTaxRate  decimal.Decimal
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	taxRate, err := decimal.NewFromString(getEnv("DEFAULT_TAX_RATE", "0"))
	if err != nil || taxRate.IsNegative() {
		return nil, fmt.Errorf("invalid DEFAULT_TAX_RATE: %q", os.Getenv("DEFAULT_TAX_RATE"))
	}

	cfg := &Config{
		RegisterID:      getEnv("REGISTER_ID", "register-1"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "registerdb"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		DefaultTaxRate:  taxRate,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Durable snapshot store: MongoDB when configured, in-memory otherwise.
	var snapshots store.SnapshotStore
	var holds store.HoldStore
	if cfg.MongoURI != "" {
		mongoDB, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoDB.Client().Disconnect(ctx)

		mongoStore := store.NewMongoStore(mongoDB)
		if err := mongoStore.CreateIndexes(ctx); err != nil {
			log.Fatal("failed to create indexes", zap.Error(err))
		}
		snapshots, holds = mongoStore, mongoStore
		log.Info("connected to MongoDB", zap.String("uri", cfg.MongoURI))
	} else {
		memStore := store.NewMemoryStore()
		snapshots, holds = memStore, memStore
		log.Warn("MONGO_URI not set, cart state will not survive a restart")
	}

	// Snapshot cache: Redis when configured.
	var snapshotCache c.SnapshotCache = c.Noop{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
		snapshotCache = c.NewRedisCache(redisClient)
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	// Rehydrate the register. A readable-but-corrupt snapshot is surfaced
	// distinctly from "no snapshot yet"; we log it and fail open to an
	// empty cart rather than refuse to start the terminal.
	register, err := reg.Open(ctx, cfg.RegisterID, snapshots, snapshotCache, log)
	if err != nil {
		log.Warn("failed to restore cart snapshot, starting empty", zap.Error(err))
		register = reg.New(cfg.RegisterID, snapshots, snapshotCache, log)
	}

	shelf := hold.NewShelf(holds, log)

	// Sale-finalized events clear the cart.
	pollerCtx, cancelPoller := context.WithCancel(ctx)
	defer cancelPoller()
	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(register, log, cfg.KafkaBrokers...)
		defer p.Close()
		go p.Run(pollerCtx)
		log.Info("checkout poller started", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	handler := api.NewHandler(register, shelf, cfg.DefaultTaxRate, log)
	router := api.NewRouter(handler, log, cfg.RequestTimeout)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		log.Info("register service listening",
			zap.String("port", cfg.HTTPPort),
			zap.String("register_id", cfg.RegisterID))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down register service")
	cancelPoller()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown failed", zap.Error(err))
	}
	log.Info("register service stopped")
}
