package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
)

// KafkaPublisher writes events to a topic, keyed by booking reference so one
// booking's events stay ordered on a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev model.Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(messageKey(ev)),
		Value: body,
		Time:  time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("kafka: write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func messageKey(ev model.Event) string {
	switch {
	case ev.BookingReference != "":
		return ev.BookingReference
	case ev.AlertID != 0:
		return fmt.Sprintf("alert-%d", ev.AlertID)
	case ev.UserID != 0:
		return fmt.Sprintf("user-%d", ev.UserID)
	}
	return ev.Type
}

// KafkaConsumer reads the events topic as part of a consumer group.
type KafkaConsumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

func NewKafkaConsumer(brokers []string, groupID, topic string, log *logger.Logger) *KafkaConsumer {
	if log == nil {
		log = logger.Discard()
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log,
	}
}

// Run reads until ctx is cancelled. Undecodable or failing messages are
// logged and skipped.
func (c *KafkaConsumer) Run(ctx context.Context, h Handler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		ev, err := Decode(msg.Value)
		if err == nil {
			err = h(ctx, ev)
		}
		if err != nil {
			c.log.Error("event handling failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
