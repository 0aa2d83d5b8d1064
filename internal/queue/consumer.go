package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/michels-travel/internal/logger"
)

const maxBackoff = 30 * time.Second

// RabbitConsumer reads the events queue with manual acks and reconnects
// with exponential backoff whenever the broker goes away.
type RabbitConsumer struct {
	url      string
	queue    string
	prefetch int
	log      *logger.Logger
}

func NewRabbitConsumer(url, queue string, log *logger.Logger) *RabbitConsumer {
	if log == nil {
		log = logger.Discard()
	}
	return &RabbitConsumer{url: url, queue: queue, prefetch: 50, log: log}
}

// Run blocks until ctx is cancelled.
func (c *RabbitConsumer) Run(ctx context.Context, h Handler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("event consumer dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, h)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("event consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *RabbitConsumer) consume(ctx context.Context, conn *amqp.Connection, h Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn("event consumer set QoS failed", "error", err)
	}
	if err := declare(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d, h)
		}
	}
}

// handle acks processed messages and rejects the rest without requeueing so
// a poison message cannot spin the consumer.
func (c *RabbitConsumer) handle(ctx context.Context, d amqp.Delivery, h Handler) {
	ev, err := Decode(d.Body)
	if err == nil {
		err = h(ctx, ev)
	}
	if err != nil {
		c.log.Error("event handling failed", "type", d.Type, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (c *RabbitConsumer) Close() error { return nil }

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
