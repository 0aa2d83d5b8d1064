package queue

import (
	"github.com/iliyamo/michels-travel/internal/config"
	"github.com/iliyamo/michels-travel/internal/logger"
)

// Broker names accepted by EVENTS_BROKER.
const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

// NewPublisher picks the publisher configured by cfg.Broker.
func NewPublisher(cfg config.EventsConfig) Publisher {
	switch cfg.Broker {
	case BrokerKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case BrokerNone, "":
		return NopPublisher{}
	default:
		return NewRabbitPublisher(cfg.RabbitURL, cfg.Queue)
	}
}

// NewConsumer picks the consumer matching cfg.Broker, or nil when events are
// disabled.
func NewConsumer(cfg config.EventsConfig, log *logger.Logger) Consumer {
	switch cfg.Broker {
	case BrokerKafka:
		return NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, log)
	case BrokerNone, "":
		return nil
	default:
		return NewRabbitConsumer(cfg.RabbitURL, cfg.Queue, log)
	}
}
