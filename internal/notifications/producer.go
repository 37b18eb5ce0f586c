package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"courtside/internal/payments"
	"courtside/pkg/logger"

	"github.com/IBM/sarama"
)

// EventProducer publishes booking and payment lifecycle events to Kafka for
// out-of-process consumers (receipts, analytics). Publishing is best effort;
// a broker outage must never block settlement.
type EventProducer interface {
	payments.EventPublisher
	Close() error
	HealthCheck(ctx context.Context) error
}

// ProducerConfig contains configuration for the Kafka event producer
type ProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultProducerConfig returns a default producer configuration
func DefaultProducerConfig(brokers []string, topic string) *ProducerConfig {
	return &ProducerConfig{
		Brokers:          brokers,
		Topic:            topic,
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

type kafkaEventProducer struct {
	producer sarama.SyncProducer
	config   *ProducerConfig
	log      *logger.Logger
}

// NewKafkaEventProducer creates a Kafka event producer
func NewKafkaEventProducer(config *ProducerConfig, log *logger.Logger) (EventProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps all events for one payment on one partition,
	// preserving their order for consumers
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("kafka event producer created", "topic", config.Topic)
	return &kafkaEventProducer{
		producer: producer,
		config:   config,
		log:      log,
	}, nil
}

// PublishPaymentEvent publishes one payment transition event
func (p *kafkaEventProducer) PublishPaymentEvent(ctx context.Context, event payments.TransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(event.PaymentID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("payment_transition")},
			{Key: []byte("payment_type"), Value: []byte(event.Type)},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send payment event to Kafka: %w", err)
	}

	p.log.Debug("payment event published",
		"topic", p.config.Topic,
		"partition", partition,
		"offset", offset,
		"payment_id", event.PaymentID,
		"status", event.Status)
	return nil
}

// Close shuts down the producer
func (p *kafkaEventProducer) Close() error {
	return p.producer.Close()
}

// HealthCheck verifies the producer can reach the brokers
func (p *kafkaEventProducer) HealthCheck(ctx context.Context) error {
	healthEvent := payments.TransitionEvent{
		PaymentID:  "health-check",
		Status:     "HEALTH",
		OccurredAt: time.Now(),
	}
	payload, err := json.Marshal(healthEvent)
	if err != nil {
		return err
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder("health-check"),
		Value: sarama.ByteEncoder(payload),
	}
	_, _, err = p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("kafka health check failed: %w", err)
	}
	return nil
}
