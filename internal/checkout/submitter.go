package checkout

import (
	"context"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

// DefaultSubmitDelay is how long the simulated order service takes to answer.
const DefaultSubmitDelay = 2 * time.Second

// Submitter hands a drafted order to whatever places it.
type Submitter interface {
	Submit(ctx context.Context, o order.Order) error
}

// SimulatedSubmitter accepts every order after Delay.
type SimulatedSubmitter struct {
	Delay time.Duration
}

func (s SimulatedSubmitter) Submit(ctx context.Context, _ order.Order) error {
	t := time.NewTimer(s.Delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, o order.Order) error

func (f SubmitterFunc) Submit(ctx context.Context, o order.Order) error { return f(ctx, o) }
