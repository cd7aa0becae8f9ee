package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/wingquest/config"
	"github.com/Domenick1991/wingquest/internal/email"
	"github.com/Domenick1991/wingquest/internal/kafka"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("kafka.brokers is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrderEventsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(logger)

	logger.Info("worker started", "topic", cfg.Kafka.OrderEventsTopic, "group", cfg.Kafka.GroupID)
	err = consumer.ConsumeOrderEvents(ctx, sender.Send)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consumer stopped: %v", err)
	}
	logger.Info("worker stopped")
}
