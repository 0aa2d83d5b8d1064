// Package queue carries domain events between the API and the worker over
// RabbitMQ or Kafka.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/michels-travel/internal/model"
)

// Publisher sends domain events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
	Close() error
}

// Handler processes one decoded event. A returned error rejects the message.
type Handler func(ctx context.Context, ev model.Event) error

// Consumer delivers events to a Handler until ctx is cancelled.
type Consumer interface {
	Run(ctx context.Context, h Handler) error
	Close() error
}

// Encode serialises ev, stamping OccurredAt when it is unset.
func Encode(ev model.Event) ([]byte, error) {
	if ev.Type == "" {
		return nil, fmt.Errorf("event type required")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(ev)
}

// Decode parses a message body produced by Encode.
func Decode(body []byte) (model.Event, error) {
	var ev model.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return model.Event{}, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return model.Event{}, fmt.Errorf("event without type")
	}
	return ev, nil
}

// NopPublisher drops every event. Used when EVENTS_BROKER=none.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.Event) error { return nil }
func (NopPublisher) Close() error { return nil }
