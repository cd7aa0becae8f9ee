package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/wingquest/api"
	"github.com/Domenick1991/wingquest/config"
	"github.com/Domenick1991/wingquest/internal/bootstrap"
	"github.com/Domenick1991/wingquest/internal/client"
	"github.com/Domenick1991/wingquest/internal/kafka"
	"github.com/Domenick1991/wingquest/internal/service/chat"
	"github.com/Domenick1991/wingquest/internal/service/checkin"
	"github.com/Domenick1991/wingquest/internal/storage"
	"github.com/Domenick1991/wingquest/internal/websocket"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	store, closeStore, err := storage.Open(ctx, *cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer closeStore()

	syncOpts := []checkin.SynchronizerOption{checkin.WithLogger(logger)}
	deps := bootstrap.Deps{Storage: store, Logger: logger}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		syncOpts = append(syncOpts, checkin.WithEvents(producer, cfg.Kafka.OrderEventsTopic))
		deps.Events = producer
	}

	deps.Backends = api.ClientFactory(cfg.Backend.BaseURL,
		client.WithTimeout(cfg.Backend.Timeout()),
		client.WithLogger(logger),
	)
	deps.Registry = checkin.NewRegistry(30*time.Minute, syncOpts...)
	deps.Conversations = chat.NewConversationStore(store, chat.WithStoreLogger(logger))
	deps.Hub = websocket.NewHub(logger)

	if err := bootstrap.Run(ctx, cfg, deps); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
