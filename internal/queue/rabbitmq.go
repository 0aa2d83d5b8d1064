package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/michels-travel/internal/model"
)

const (
	// maxDialTimeout caps a dial when the publish context has no deadline.
	maxDialTimeout = 3 * time.Second
	// redialBackoff is how long publishes fail fast after a failed dial.
	redialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher waits out the backoff
// after a failed connection attempt.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// RabbitPublisher publishes persistent messages to a durable queue through
// the default exchange. The connection is opened lazily and re-opened after
// a failure.
type RabbitPublisher struct {
	url   string
	queue string
	now   func() time.Time

	// sem serialises access to the connection; waiting on it respects the
	// caller's context.
	sem      chan struct{}
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

func NewRabbitPublisher(url, queue string) *RabbitPublisher {
	return &RabbitPublisher{url: url, queue: queue, now: time.Now, sem: make(chan struct{}, 1)}
}

func (p *RabbitPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rabbitmq: %w", ctx.Err())
	}
}

func (p *RabbitPublisher) unlock() { <-p.sem }

func (p *RabbitPublisher) Publish(ctx context.Context, ev model.Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}

	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialling and declaring the queue first
// when needed. The dial is bounded by ctx and skipped entirely during the
// backoff that follows a failed attempt. Callers hold the lock.
func (p *RabbitPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if p.now().Before(p.nextDial) {
		return nil, ErrBrokerUnavailable
	}
	timeout := maxDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 || ctx.Err() != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		p.nextDial = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *RabbitPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *RabbitPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	p.reset()
	return nil
}

func declare(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	return nil
}
