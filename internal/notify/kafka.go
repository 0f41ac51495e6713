package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes notifications to a Kafka topic keyed by customer id so a
// customer's events stay ordered within one partition.
type KafkaSink struct {
	writer *kafka.Writer
}

// kafkaBatchTimeout caps how long a partial batch waits before it is flushed.
// Notifications arrive one at a time, so the writer's 1s default would delay
// every write by a full second.
const kafkaBatchTimeout = 5 * time.Millisecond

// NewKafkaWriter builds the writer used by KafkaSink
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           kafkaBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaSink wraps an existing writer
func NewKafkaSink(writer *kafka.Writer) *KafkaSink {
	return &KafkaSink{writer: writer}
}

// Notify implements Sink
func (s *KafkaSink) Notify(ctx context.Context, n Notification) error {
	payload, err := n.Encode()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(n.CustomerID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write notification to kafka: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
