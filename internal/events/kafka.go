package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaSink struct {
	writer kafkaMessageWriter
}

// NewKafkaPublisher writes events to topic, keyed by partition key so one
// visitor's events land on one partition.
func NewKafkaPublisher(brokers []string, topic string, seqRepo SequenceRepository, logger *zap.Logger) *Publisher {
	return newKafkaPublisherWith(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}, seqRepo, logger)
}

func newKafkaPublisherWith(w kafkaMessageWriter, seqRepo SequenceRepository, logger *zap.Logger) *Publisher {
	return newPublisher(&kafkaSink{writer: w}, seqRepo, logger)
}

func (s *kafkaSink) send(ctx context.Context, routingKey, partitionKey string, body []byte) error {
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(partitionKey),
		Value: body,
		Headers: []kafka.Header{
			{Key: "routing-key", Value: []byte(routingKey)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
}

func (s *kafkaSink) Close() error {
	return s.writer.Close()
}
