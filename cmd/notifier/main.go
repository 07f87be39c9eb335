// Command notifier follows the service's event topics and logs merchant
// notifications for new selections, conversions, orders and expenses.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"merchant-desk/internal/config"
	"merchant-desk/internal/events"
	"merchant-desk/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewWithLevel(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if !cfg.Kafka.Enabled() {
		log.Fatal("KAFKA_BROKERS is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Notifier started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Strings("topics", events.AllTopics),
	)

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, events.AllTopics, log)
	if err := consumer.Run(ctx, events.NewNotifier(log).Handle); err != nil {
		log.Fatal("Consumer stopped", zap.Error(err))
	}

	log.Info("Notifier exiting")
}
