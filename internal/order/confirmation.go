package order

import (
	"errors"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// ErrNoHandoff means the confirmation view was reached without a fresh order.
var ErrNoHandoff = errors.New("no order to confirm")

// Confirmation is the read-only view of a completed order.
type Confirmation struct {
	OrderID           string        `json:"orderId"`
	Items             []cart.Line   `json:"items"`
	Total             string        `json:"total"`
	Address           Address       `json:"address"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	EstimatedDelivery string        `json:"estimatedDelivery"`
	PlacedAt          time.Time     `json:"placedAt"`
}

// Confirm consumes the pending order in m. It never falls back to any
// stored state: without a hand-off it returns ErrNoHandoff.
func Confirm(m *Mailbox) (Confirmation, error) {
	o, ok := m.Take()
	if !ok {
		return Confirmation{}, ErrNoHandoff
	}
	return Project(o), nil
}

func Project(o Order) Confirmation {
	lines := make([]cart.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, cart.Line{Item: it, Total: it.LineTotal().StringFixed2()})
	}
	return Confirmation{
		OrderID:           o.ID,
		Items:             lines,
		Total:             o.Total.StringFixed2(),
		Address:           o.Address,
		PaymentMethod:     o.PaymentMethod,
		EstimatedDelivery: o.EstimatedDelivery,
		PlacedAt:          o.PlacedAt,
	}
}
