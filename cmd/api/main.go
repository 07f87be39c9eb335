package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"merchant-desk/internal/config"
	"merchant-desk/internal/database"
	"merchant-desk/internal/events"
	"merchant-desk/internal/logger"
	"merchant-desk/internal/redisx"
	"merchant-desk/internal/server"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, producer *events.Producer, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// in-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// handlers may still have queued events until Shutdown returns
	if producer != nil {
		producer.Close()
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewWithLevel(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting merchant desk API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(ctx, db, cfg.Server.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	var rdb *redis.Client
	if client, err := redisx.New(ctx, cfg.Redis); err != nil {
		log.Warn("Redis unavailable, rate limiting and submission dedup disabled", zap.Error(err))
	} else {
		rdb = client
	}

	var publisher events.Publisher = events.NopPublisher{}
	var producer *events.Producer
	if cfg.Kafka.Enabled() {
		producer = events.NewProducer(cfg.Kafka.Brokers, 256, log)
		producer.Start()
		publisher = producer
		log.Info("Publishing events", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	srv, err := server.NewServer(server.Deps{
		Config:    cfg,
		Logger:    log,
		Stores:    server.PostgresStores(db),
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
	})
	if err != nil {
		log.Fatal("Failed to build server", zap.Error(err))
	}

	done := make(chan bool, 1)
	go gracefulShutdown(srv, producer, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
