package events

import (
	"context"

	"go.uber.org/zap"
)

type logSink struct {
	logger *zap.Logger
}

// NewLogPublisher writes events to the log instead of a broker. Used when
// EVENTS_BROKER=none.
func NewLogPublisher(seqRepo SequenceRepository, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newPublisher(&logSink{logger: logger}, seqRepo, logger)
}

func (s *logSink) send(_ context.Context, routingKey, partitionKey string, body []byte) error {
	s.logger.Info("event",
		zap.String("routing_key", routingKey),
		zap.String("partition_key", partitionKey),
		zap.ByteString("body", body),
	)
	return nil
}

func (s *logSink) Close() error { return nil }
