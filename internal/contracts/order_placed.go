package contracts

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

const (
	OrderPlacedEventName           = "OrderPlaced"
	OrderPlacedEventVersion        = 1
	OrderPlacedEnvelopedSchemaPath = "contracts/events/storefront/OrderPlaced.v1.enveloped.schema.json"
	StorefrontProducer             = "storefront-go"
)

type OrderPlacedEvent = EventEnvelope[OrderPlacedPayload]

type OrderPlacedPayload struct {
	OrderID           string            `json:"orderId"`
	Items             []OrderPlacedItem `json:"items"`
	TotalAmount       string            `json:"totalAmount"`
	PaymentMethod     string            `json:"paymentMethod"`
	City              string            `json:"city"`
	EstimatedDelivery string            `json:"estimatedDelivery"`
	Timestamp         time.Time         `json:"timestamp"`
}

type OrderPlacedItem struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// BuildOrderPlacedEvent wraps o in a v1 envelope. Unset options fall back to
// a fresh event id, the current time, the storefront producer and the
// enveloped schema path.
func BuildOrderPlacedEvent(o order.Order, opts EnvelopeOptions) OrderPlacedEvent {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	schemaPath := opts.SchemaPath
	if schemaPath == "" {
		schemaPath = OrderPlacedEnvelopedSchemaPath
	}

	producer := opts.Producer
	if producer == "" {
		producer = StorefrontProducer
	}

	payload := OrderPlacedPayload{
		OrderID:           o.ID,
		Items:             make([]OrderPlacedItem, 0, len(o.Items)),
		TotalAmount:       o.Total.StringFixed2(),
		PaymentMethod:     string(o.PaymentMethod),
		City:              o.Address.City,
		EstimatedDelivery: o.EstimatedDelivery,
		Timestamp:         occurredAt,
	}
	for _, it := range o.Items {
		unit, _ := it.UnitPrice()
		payload.Items = append(payload.Items, OrderPlacedItem{
			ProductID: it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: unit.StringFixed2(),
		})
	}

	return OrderPlacedEvent{
		EventName:     OrderPlacedEventName,
		EventVersion:  OrderPlacedEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  opts.PartitionKey,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        schemaPath,
		Payload:       payload,
	}
}
