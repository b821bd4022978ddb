// Package kafka consumes storage notifications and feeds them to the
// ingest pipeline.
package kafka

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docindex/internal/usecase/ingest"
)

// Ingestor processes a batch of notification bodies.
type Ingestor interface {
	ProcessBatch(ctx context.Context, bodies []json.RawMessage) ingest.BatchResult
}

// Config holds consumer connection settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer reads notification messages from a Kafka topic and hands
// them to the ingest pipeline. Delivery is at-least-once; the pipeline
// is idempotent by docId, so redelivery is safe.
type Consumer struct {
	reader   *kafka.Reader
	ingestor Ingestor
	logger   *zap.Logger
}

// NewConsumer creates a Consumer for the given topic.
func NewConsumer(cfg Config, ingestor Ingestor, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &Consumer{
		reader:   r,
		ingestor: ingestor,
		logger:   logger.With(zap.String("component", "kafka-consumer"), zap.String("topic", cfg.Topic)),
	}
}

// Run enters the consume loop, fetching and processing messages until
// ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", zap.Error(ctx.Err()))
				return nil
			}
			c.logger.Error("fetch message failed", zap.Error(err))
			continue
		}

		c.handle(ctx, msg.Value)

		// Commit even when records failed: failures are persisted per
		// document and retrying the whole batch would not change them.
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) handle(ctx context.Context, value []byte) {
	bodies := splitBodies(value)
	res := c.ingestor.ProcessBatch(ctx, bodies)
	c.logger.Info("batch handled",
		zap.Int("records", len(bodies)),
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
	)
}

// splitBodies accepts either a single notification object or a JSON
// array of them.
func splitBodies(value []byte) []json.RawMessage {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err == nil {
			return arr
		}
	}
	return []json.RawMessage{json.RawMessage(trimmed)}
}
