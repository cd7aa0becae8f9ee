package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// ConsumeOrderEvents decodes each message and passes it to handler.
// Undecodable messages are logged and skipped; a handler error stops the
// loop.
func (c *Consumer) ConsumeOrderEvents(ctx context.Context, handler func(context.Context, OrderEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		event, ok := DecodeOrderEvent(msg.Value, c.logger)
		if !ok {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func DecodeOrderEvent(value []byte, logger *slog.Logger) (OrderEvent, bool) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		logger.Warn("decode order event", "error", err)
		return OrderEvent{}, false
	}
	if event.Type == "" {
		logger.Warn("order event without type", "order_id", event.OrderID)
		return OrderEvent{}, false
	}
	return event, true
}
