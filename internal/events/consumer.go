package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler must return nil only when the message may be committed
type Handler func(ctx context.Context, topic string, env Envelope) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads envelopes from a consumer group and commits after successful handling
type Consumer struct {
	r       messageReader
	logger  *zap.Logger
	backoff time.Duration
}

// NewConsumer subscribes group to topics
func NewConsumer(brokers []string, group string, topics []string, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return &Consumer{r: r, logger: logger, backoff: 200 * time.Millisecond}
}

// Run blocks until ctx is cancelled. Messages that fail to decode are committed and skipped;
// handler failures leave the offset uncommitted so the group redelivers after a rebalance.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	defer c.r.Close()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		var env Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			c.logger.Warn("Skipping malformed event",
				zap.String("topic", m.Topic),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
			c.commit(ctx, m)
			continue
		}

		if err := h(ctx, m.Topic, env); err != nil {
			c.logger.Error("Event handler failed",
				zap.String("topic", m.Topic),
				zap.String("event_id", env.EventID),
				zap.Error(err),
			)
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		c.commit(ctx, m)
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.r.CommitMessages(ctx, m); err != nil {
		c.logger.Warn("Failed to commit offset", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
	}
}
