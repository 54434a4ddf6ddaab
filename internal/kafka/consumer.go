package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"budget/internal/events"
	"budget/internal/log"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads ledger events from a topic as part of a consumer group.
type Consumer struct {
	reader messageReader
	logger *log.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *log.Logger) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		logger: logger.WithComponent(log.ComponentEvents),
	}
}

// Consume passes every event to handler until ctx is done. Messages that do
// not decode are logged and skipped; a handler error stops consumption.
func (c *Consumer) Consume(ctx context.Context, handler func(events.Event) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("read message: %w", err)
		}
		e, err := events.FromJSON(msg.Value)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping undecodable message",
				"offset", msg.Offset, "partition", msg.Partition, log.FieldError, err)
			continue
		}
		if err := handler(e); err != nil {
			return fmt.Errorf("handle %s: %w", e.Type, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
