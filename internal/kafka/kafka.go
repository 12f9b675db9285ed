// Package kafka carries ledger events over a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/events"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events keyed by entry so that all changes to one entry
// land on the same partition in order.
type Publisher struct {
	writer messageWriter
	topic  string
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
		},
		topic: topic,
	}
}

func (p *Publisher) Publish(ctx context.Context, evt events.EntryEvent) error {
	data, err := evt.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.Key()),
		Value: data,
		Time:  evt.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	slog.InfoContext(ctx, "Published ledger event",
		"event_id", evt.EventID,
		"key", evt.Key(),
		"action", evt.Action,
		"topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Consumer reads events as part of a consumer group. Offsets are committed
// only after the handler succeeds. A failing handler is retried in place so
// that later events for the same entry are never applied ahead of it.
type Consumer struct {
	reader     messageReader
	newBackOff func() backoff.BackOff
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		newBackOff: handlerBackOff,
	}
}

// handlerBackOff never gives up; only cancellation stops a retry.
func handlerBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return b
}

func (c *Consumer) handle(ctx context.Context, handler events.Handler, evt events.EntryEvent) error {
	newBackOff := c.newBackOff
	if newBackOff == nil {
		newBackOff = handlerBackOff
	}
	return backoff.RetryNotify(func() error {
		err := handler(ctx, evt)
		if errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(newBackOff(), ctx), func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "Failed to handle event, retrying",
			"key", evt.Key(),
			"event_id", evt.EventID,
			"error", err,
			"wait", wait)
	})
}

// Consume blocks until ctx is cancelled or the reader fails.
func (c *Consumer) Consume(ctx context.Context, handler events.Handler) error {
	slog.InfoContext(ctx, "Started consuming ledger events from kafka")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		evt, err := events.FromJSON(msg.Value)
		if err != nil {
			// Poison message: skip it so the partition keeps moving.
			slog.ErrorContext(ctx, "Failed to decode event", "error", err, "offset", msg.Offset, "partition", msg.Partition)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("commit kafka message: %w", err)
			}
			continue
		}

		if err := c.handle(ctx, handler, evt); err != nil {
			// Without a commit the group redelivers from this offset after restart.
			return fmt.Errorf("handle event %s: %w", evt.Key(), err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit kafka message: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
