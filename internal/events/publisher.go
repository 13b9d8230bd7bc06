package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/contracts"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

// sink delivers an encoded event to a broker.
type sink interface {
	send(ctx context.Context, routingKey, partitionKey string, body []byte) error
	Close() error
}

// Publisher emits storefront domain events through one sink.
type Publisher struct {
	sink     sink
	seqRepo  SequenceRepository
	producer string
	logger   *zap.Logger
	now      func() time.Time
}

func newPublisher(s sink, seqRepo SequenceRepository, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		sink:     s,
		seqRepo:  seqRepo,
		producer: contracts.StorefrontProducer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PublishOrderPlaced announces a completed checkout. partitionKey is the
// visitor session so a consumer sees one visitor's orders in sequence.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, partitionKey string, o order.Order) error {
	seq, err := p.seqRepo.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	md := MetadataFrom(ctx)
	env := contracts.BuildOrderPlacedEvent(o, contracts.EnvelopeOptions{
		PartitionKey:  partitionKey,
		Sequence:      seq,
		Producer:      p.producer,
		CorrelationID: md.CorrelationID,
		CausationID:   md.CausationID,
		OccurredAt:    p.now(),
	})

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}

	if err := p.sink.send(ctx, OrderPlacedRoutingKey, partitionKey, body); err != nil {
		return fmt.Errorf("publish OrderPlaced: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("event", contracts.OrderPlacedEventName),
		zap.String("order_id", o.ID),
		zap.Int64("sequence", seq),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.sink.Close()
}
