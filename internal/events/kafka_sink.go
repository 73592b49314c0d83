package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards account events to a Kafka topic keyed by email.
type KafkaSink struct {
	writer messageWriter
}

// batchTimeout bounds how long a synchronous write waits for a batch to fill.
const batchTimeout = 10 * time.Millisecond

// NewKafkaSink creates a sink writing to topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:      brokers,
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: batchTimeout,
		}),
	}
}

// Handle is an EventHandler.
func (s *KafkaSink) Handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Email),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending writes.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
