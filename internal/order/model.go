package order

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/money"
)

// DefaultEstimatedDelivery is shown on every confirmation unless configured otherwise.
const DefaultEstimatedDelivery = "2-3 business days"

type PaymentMethod string

const (
	PaymentUPI PaymentMethod = "upi"
	PaymentCOD PaymentMethod = "cod"
)

type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// Order is the record of one checkout submission. It is never persisted.
type Order struct {
	ID                string        `json:"orderId"`
	Items             []cart.Item   `json:"items"`
	Total             money.Amount  `json:"total"`
	Address           Address       `json:"address"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	EstimatedDelivery string        `json:"estimatedDelivery"`
	PlacedAt          time.Time     `json:"placedAt"`
}

// Clone returns a copy that shares no item storage with o.
func (o Order) Clone() Order {
	c := o
	c.Items = make([]cart.Item, len(o.Items))
	copy(c.Items, o.Items)
	return c
}
