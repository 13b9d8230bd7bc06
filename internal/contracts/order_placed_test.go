package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/money"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

func placedOrder() order.Order {
	return order.Order{
		ID: "COLA-0A1B2C3D4E5F6",
		Items: []cart.Item{
			{Product: catalog.Product{ID: 1, Name: "Classic", Price: "$2.49"}, Quantity: 2},
		},
		Total:             money.MustParse("5.8764"),
		Address:           order.Address{Name: "Asha", Phone: "1", Street: "2", City: "Pune", PostalCode: "411001"},
		PaymentMethod:     order.PaymentCOD,
		EstimatedDelivery: order.DefaultEstimatedDelivery,
	}
}

func TestBuildOrderPlacedEvent(t *testing.T) {
	now := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

	env := BuildOrderPlacedEvent(placedOrder(), EnvelopeOptions{
		PartitionKey:  "2b7d7c9e-3c1a-4e5f-9f0a-1b2c3d4e5f60",
		Sequence:      42,
		CorrelationID: "53b0fd3e-8d6b-49af-8c1f-12cf4182c2f7",
		CausationID:   "63b0fd3e-8d6b-49af-8c1f-12cf4182c2f7",
		EventID:       "73b0fd3e-8d6b-49af-8c1f-12cf4182c2f7",
		OccurredAt:    now,
	})

	require.NoError(t, env.Validate(OrderPlacedEventName, OrderPlacedEventVersion))
	assert.Equal(t, "73b0fd3e-8d6b-49af-8c1f-12cf4182c2f7", env.EventID)
	assert.Equal(t, StorefrontProducer, env.Producer)
	assert.Equal(t, OrderPlacedEnvelopedSchemaPath, env.Schema)
	assert.Equal(t, int64(42), env.Sequence)
	assert.Equal(t, now, env.Payload.Timestamp)
	assert.Equal(t, "5.88", env.Payload.TotalAmount)
	assert.Equal(t, "cod", env.Payload.PaymentMethod)
	require.Len(t, env.Payload.Items, 1)
	assert.Equal(t, OrderPlacedItem{ProductID: 1, Name: "Classic", Quantity: 2, UnitPrice: "2.49"}, env.Payload.Items[0])
}

func TestBuildOrderPlacedEvent_Defaults(t *testing.T) {
	env := BuildOrderPlacedEvent(placedOrder(), EnvelopeOptions{PartitionKey: "s", Sequence: 1})

	_, err := uuid.Parse(env.EventID)
	require.NoError(t, err)
	assert.False(t, env.OccurredAt.IsZero())
	assert.Equal(t, StorefrontProducer, env.Producer)
}

func TestEnvelopeValidate(t *testing.T) {
	valid := func() OrderPlacedEvent {
		return BuildOrderPlacedEvent(placedOrder(), EnvelopeOptions{PartitionKey: "s", Sequence: 1})
	}

	t.Run("event name mismatch", func(t *testing.T) {
		env := valid()
		env.EventName = "WrongEvent"
		assert.Error(t, env.Validate(OrderPlacedEventName, OrderPlacedEventVersion))
	})

	t.Run("missing partition key", func(t *testing.T) {
		env := valid()
		env.PartitionKey = ""
		assert.Error(t, env.Validate(OrderPlacedEventName, OrderPlacedEventVersion))
	})

	t.Run("missing sequence", func(t *testing.T) {
		env := valid()
		env.Sequence = 0
		assert.Error(t, env.Validate(OrderPlacedEventName, OrderPlacedEventVersion))
	})
}

func TestOrderPlacedWireFields(t *testing.T) {
	raw, err := json.Marshal(BuildOrderPlacedEvent(placedOrder(), EnvelopeOptions{PartitionKey: "s", Sequence: 3}))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"eventName", "eventVersion", "eventId", "producer", "partitionKey", "sequence", "occurredAt", "schema", "payload"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "correlationId", "empty correlation id is omitted")
}
