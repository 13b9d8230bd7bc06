package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Status is a point-in-time view of a Flow.
type Status struct {
	State   State  `json:"state"`
	OrderID string `json:"orderId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is delivered once per accepted submission.
type Result struct {
	Order order.Order
	Err   error
}

// OrderPublisher announces completed orders.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, partitionKey string, o order.Order) error
}

type Recorder interface {
	ValidationFailed()
	SubmissionStarted()
	SubmissionFinished(elapsed time.Duration, err error)
	EventPublished(err error)
}

type nopRecorder struct{}

func (nopRecorder) ValidationFailed()                       {}
func (nopRecorder) SubmissionStarted()                      {}
func (nopRecorder) SubmissionFinished(time.Duration, error) {}
func (nopRecorder) EventPublished(error)                    {}

// Flow drives one visitor from cart to confirmation:
// Editing -> Submitting -> Completed, or Submitting -> Failed when the
// submitter gives up. A Failed flow accepts a new Submit as its retry.
type Flow struct {
	cart      *cart.Cart
	mailbox   *order.Mailbox
	submitter Submitter
	publisher OrderPublisher
	recorder  Recorder
	logger    *zap.Logger
	ids       *order.IDGenerator
	validate  *validator.Validate
	now       func() time.Time

	partitionKey      string
	estimatedDelivery string
	attemptTimeout    time.Duration
	maxAttempts       uint
	retryInterval     time.Duration
	publishTimeout    time.Duration

	mu      sync.Mutex
	state   State
	orderID string
	lastErr error
	wg      sync.WaitGroup
}

type Option func(*Flow)

func WithPublisher(p OrderPublisher, partitionKey string) Option {
	return func(f *Flow) {
		f.publisher = p
		f.partitionKey = partitionKey
	}
}

func WithRecorder(r Recorder) Option {
	return func(f *Flow) { f.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

func WithIDGenerator(g *order.IDGenerator) Option {
	return func(f *Flow) { f.ids = g }
}

func WithEstimatedDelivery(s string) Option {
	return func(f *Flow) { f.estimatedDelivery = s }
}

// WithRetry bounds each submit attempt by timeout and gives up after
// maxAttempts. interval is the first backoff wait.
func WithRetry(timeout time.Duration, maxAttempts uint, interval time.Duration) Option {
	return func(f *Flow) {
		f.attemptTimeout = timeout
		f.maxAttempts = maxAttempts
		f.retryInterval = interval
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func New(c *cart.Cart, mailbox *order.Mailbox, submitter Submitter, opts ...Option) *Flow {
	f := &Flow{
		cart:              c,
		mailbox:           mailbox,
		submitter:         submitter,
		recorder:          nopRecorder{},
		logger:            zap.NewNop(),
		ids:               order.NewIDGenerator(order.DefaultIDPrefix),
		validate:          newValidator(),
		now:               func() time.Time { return time.Now().UTC() },
		estimatedDelivery: order.DefaultEstimatedDelivery,
		attemptTimeout:    10 * time.Second,
		maxAttempts:       3,
		retryInterval:     500 * time.Millisecond,
		publishTimeout:    5 * time.Second,
		state:             StateEditing,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxAttempts == 0 {
		f.maxAttempts = 1
	}
	return f
}

// Enter reports what the visitor sees on opening checkout. It does not
// change the flow. An empty cart cannot be checked out; the caller sends the
// visitor back to the catalog. After a completed order the visitor gets a
// fresh form, and the next Submit starts a new order.
func (f *Flow) Enter() (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return f.statusLocked(), nil
	}
	if f.cart.Len() == 0 {
		return f.statusLocked(), ErrEmptyCart
	}
	if f.state == StateCompleted {
		return Status{State: StateEditing}, nil
	}
	return f.statusLocked(), nil
}

// Submit validates form and, when it passes, starts placing the order in
// the background. The returned channel yields exactly one Result.
//
// The submission runs detached from ctx: abandoning the request does not
// cancel it, and its completion still clears the cart and fills the mailbox.
func (f *Flow) Submit(ctx context.Context, form Form) (<-chan Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return nil, ErrSubmissionInFlight
	}

	items, total := f.cart.Snapshot()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	form = form.normalized()
	if err := validateForm(f.validate, form); err != nil {
		f.recorder.ValidationFailed()
		f.state = StateEditing
		f.lastErr = nil
		return nil, err
	}

	draft := order.Order{
		ID:                f.ids.Next(),
		Items:             items,
		Total:             total,
		Address:           form.address(),
		PaymentMethod:     form.PaymentMethod,
		EstimatedDelivery: f.estimatedDelivery,
		PlacedAt:          f.now(),
	}

	f.state = StateSubmitting
	f.orderID = draft.ID
	f.lastErr = nil

	results := make(chan Result, 1)
	f.wg.Add(1)
	go f.run(context.WithoutCancel(ctx), draft, results)

	return results, nil
}

func (f *Flow) run(ctx context.Context, draft order.Order, results chan<- Result) {
	defer f.wg.Done()
	defer close(results)

	logger := f.logger.With(zap.String("order_id", draft.ID))

	f.recorder.SubmissionStarted()
	start := time.Now()
	err := f.submitWithRetry(ctx, draft)
	f.recorder.SubmissionFinished(time.Since(start), err)

	if err != nil {
		f.mu.Lock()
		f.state = StateFailed
		f.lastErr = err
		f.mu.Unlock()

		logger.Warn("order submission failed", zap.Error(err))
		results <- Result{Err: err}
		return
	}

	if err := f.cart.Clear(ctx); err != nil {
		logger.Error("clear cart after order", zap.Error(err))
	}
	f.mailbox.Deliver(draft)

	f.mu.Lock()
	f.state = StateCompleted
	f.mu.Unlock()
	logger.Info("order placed", zap.String("total", draft.Total.StringFixed2()))

	f.publish(ctx, logger, draft)
	results <- Result{Order: draft}
}

func (f *Flow) submitWithRetry(ctx context.Context, draft order.Order) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retryInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		actx := ctx
		if f.attemptTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, f.attemptTimeout)
			defer cancel()
		}

		err := f.submitter.Submit(actx, draft)
		if errors.Is(err, ErrRejected) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			f.logger.Debug("submit attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(f.maxAttempts),
	)
	if err != nil {
		return fmt.Errorf("submit order after %d attempt(s): %w", attempt, err)
	}
	return nil
}

func (f *Flow) publish(ctx context.Context, logger *zap.Logger, o order.Order) {
	if f.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, f.publishTimeout)
	defer cancel()

	err := f.publisher.PublishOrderPlaced(pctx, f.partitionKey, o)
	f.recorder.EventPublished(err)
	if err != nil {
		logger.Warn("publish OrderPlaced failed", zap.Error(err))
	}
}

func (f *Flow) State() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

func (f *Flow) statusLocked() Status {
	s := Status{State: f.state, OrderID: f.orderID}
	if f.lastErr != nil {
		s.Error = f.lastErr.Error()
	}
	return s
}

// Wait blocks until every started submission has finished.
func (f *Flow) Wait() {
	f.wg.Wait()
}
