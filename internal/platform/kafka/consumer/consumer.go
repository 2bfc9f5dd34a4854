// Package consumer provides a Kafka consumer-group wrapper around franz-go.
// Offsets are committed only after the handler succeeds. A failing record is
// retried in place with backoff, so the committed offset never advances past
// a record that has not been handled.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one consumed Kafka record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes consumed messages. A nil return commits the offset; an
// error is retried with backoff until it clears or the consumer shuts down.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Config holds the connection settings for a consumer group.
type Config struct {
	Brokers []string
	Group   string
	Topics  []string
}

// Retry backoff for a failing record: doubles from the floor to the cap.
const (
	defaultRetryMin = 250 * time.Millisecond
	defaultRetryMax = 5 * time.Second
)

// Consumer polls a consumer group and feeds records to a handler one at a
// time, in partition order.
type Consumer struct {
	client   *kgo.Client
	handler  Handler
	logger   *slog.Logger
	retryMin time.Duration
	retryMax time.Duration
}

func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{
		client:   client,
		handler:  handler,
		logger:   logger,
		retryMin: defaultRetryMin,
		retryMax: defaultRetryMax,
	}, nil
}

// EnsureTopic creates the topic if it does not exist yet. Single partition,
// replication factor from the broker default.
func (c *Consumer) EnsureTopic(ctx context.Context, topic string) error {
	adm := kadm.NewClient(c.client)
	resp, err := adm.CreateTopic(ctx, 1, -1, nil, topic)
	if err != nil {
		return err
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

// Run polls until the context is cancelled or the client is closed. Records
// are handled in fetch order; a failing record blocks its successors so the
// next commit cannot implicitly cover it.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var records []*kgo.Record
		fetches.EachRecord(func(rec *kgo.Record) {
			records = append(records, rec)
		})

		var (
			handled []*kgo.Record
			runErr  error
		)
		for _, rec := range records {
			msg := &Message{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       rec.Key,
				Value:     rec.Value,
				Timestamp: rec.Timestamp,
			}
			if err := c.handleMessage(ctx, msg); err != nil {
				runErr = err
				break
			}
			handled = append(handled, rec)
		}

		if len(handled) > 0 {
			// Commit even when shutting down mid-fetch; the handled prefix
			// must not be redelivered.
			commitCtx := context.WithoutCancel(ctx)
			if err := c.client.CommitRecords(commitCtx, handled...); err != nil {
				c.logger.ErrorContext(ctx, "offset commit failed", "error", err)
			}
		}
		if runErr != nil {
			return runErr
		}
	}
}

// handleMessage retries a record until the handler accepts it or the context
// ends. Returning an error means the record was NOT handled.
func (c *Consumer) handleMessage(ctx context.Context, msg *Message) error {
	backoff := c.retryMin
	for {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return nil
		}
		c.logger.ErrorContext(ctx, "message handling failed, retrying",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"backoff", backoff.String(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < c.retryMax {
			backoff *= 2
			if backoff > c.retryMax {
				backoff = c.retryMax
			}
		}
	}
}

// Close shuts the underlying client down, stopping Run.
func (c *Consumer) Close() {
	c.client.Close()
}
