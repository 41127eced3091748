package workers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=./mock_reader_test.go -package=workers . MessageReader

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PurchaseConsumer settles purchase events from Kafka. An offset is committed
// only after the purchase settled or was rejected for good.
type PurchaseConsumer struct {
	reader  MessageReader
	settler OrderSettler
	logger  *zap.Logger
	backoff time.Duration
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
}

func NewPurchaseConsumer(reader MessageReader, settler OrderSettler, logger *zap.Logger) *PurchaseConsumer {
	return &PurchaseConsumer{reader: reader, settler: settler, logger: logger, backoff: 2 * time.Second}
}

// Run consumes until ctx is cancelled or the reader fails, then closes the reader.
func (c *PurchaseConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	c.logger.Info("[KAFKA] purchase consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("[KAFKA] purchase consumer stopped")
				return nil
			}
			return err
		}
		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// handle settles one message, retrying transient failures until ctx ends.
func (c *PurchaseConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var order Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		c.logger.Warn("[KAFKA] dropping malformed message",
			zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.Error(err))
		return c.reader.CommitMessages(ctx, msg)
	}
	if order.ID == "" {
		order.ID = string(msg.Key)
	}

	for {
		_, err := c.settler.SettleOrder(ctx, order.ID, order.UserID, order.ProductName, order.Amount)
		if err == nil {
			return c.reader.CommitMessages(ctx, msg)
		}
		if permanent(err) {
			c.logger.Warn("[KAFKA] rejecting purchase", zap.String("order_ref", order.ID), zap.Error(err))
			return c.reader.CommitMessages(ctx, msg)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		c.logger.Error("[KAFKA] settlement failed, retrying", zap.String("order_ref", order.ID), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}
