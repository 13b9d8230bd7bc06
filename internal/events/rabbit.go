package events

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Dial connects to RabbitMQ, retrying with exponential backoff until
// maxElapsed has passed. Brokers started alongside the service are often not
// ready on the first attempt.
func Dial(ctx context.Context, url string, maxElapsed time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	conn, err := backoff.Retry(ctx, func() (*amqp.Connection, error) {
		return amqp.Dial(url)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("rabbitmq not reachable, retrying", zap.Error(err), zap.Duration("wait", wait))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

type rabbitSink struct {
	ch *amqp.Channel
}

// NewRabbitPublisher publishes onto the shared topic exchange.
func NewRabbitPublisher(conn *amqp.Connection, seqRepo SequenceRepository, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(&rabbitSink{ch: ch}, seqRepo, logger), nil
}

func (s *rabbitSink) send(ctx context.Context, routingKey, _ string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (s *rabbitSink) Close() error {
	return s.ch.Close()
}
