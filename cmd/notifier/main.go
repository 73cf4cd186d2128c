package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"villagestay/internal/notifications"
	"villagestay/pkg/config"
	"villagestay/pkg/kafka"
	kafka_config "villagestay/pkg/kafka/config"
	kafka_middleware "villagestay/pkg/kafka/middleware"
)

const ServiceName = "notifier"

// The notifier consumes booking events published by the marketplace API and
// emails guests and hosts. Failed messages end up on the DLQ topic.
func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled {
		cfg.Log.Fatal("KAFKA_BROKERS must be set to run the notifier")
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	deliverer := notifications.NewEmailDeliverer(notifications.NewSender(cfg, cfg.Log))
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.NotificationsTopic,
		kafkaCfg.ConsumerGroupID,
		cfg.NotificationsDLQTopic,
		notifications.MessageHandler(deliverer),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create notifications consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(kafkaCfg.MetricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.LogMetrics(cfg.Log)
				cfg.Log.Info("Notifications consumer lag", "lag", consumer.Lag())
			}
		}
	}()

	cfg.Log.Info("Starting notifications consumer", "topic", cfg.NotificationsTopic, "group", kafkaCfg.ConsumerGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Notifications consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close notifications consumer", "error", err)
	}
	metrics.LogMetrics(cfg.Log)
	cfg.Log.Info("Notifier stopped")
}
