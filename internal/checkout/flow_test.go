package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/money"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

var classic = catalog.Product{ID: 1, Name: "Classic", Tagline: "The Original", Price: "$2.49", Available: true}

func validForm() Form {
	return Form{
		Name:          "Asha Rao",
		Phone:         "9876543210",
		Street:        "12 MG Road",
		City:          "Pune",
		PostalCode:    "411001",
		PaymentMethod: order.PaymentUPI,
	}
}

type fakePublisher struct {
	mu        sync.Mutex
	calls     []order.Order
	partition string
	err       error
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, partitionKey string, o order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, o)
	f.partition = partitionKey
	return f.err
}

type fixture struct {
	store   *storage.MemoryStore
	cart    *cart.Cart
	mailbox *order.Mailbox
}

func newFixture(t *testing.T, qty int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := cart.Load(ctx, store)
	if qty > 0 {
		_, err := c.AddItem(ctx, classic, qty)
		require.NoError(t, err)
	}
	return &fixture{store: store, cart: c, mailbox: order.NewMailbox()}
}

func immediate() Submitter {
	return SubmitterFunc(func(context.Context, order.Order) error { return nil })
}

func await(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r, ok := <-results:
		require.True(t, ok, "results closed without a value")
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("submission did not finish")
		return Result{}
	}
}

func TestEnter_EmptyCartRedirects(t *testing.T) {
	fx := newFixture(t, 0)
	f := New(fx.cart, fx.mailbox, immediate())

	_, err := f.Enter()
	assert.True(t, errors.Is(err, ErrEmptyCart))
}

func TestSubmit_EmptyCartNeverCompletes(t *testing.T) {
	fx := newFixture(t, 0)
	f := New(fx.cart, fx.mailbox, immediate())

	results, err := f.Submit(context.Background(), validForm())
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, ErrEmptyCart))
	assert.Equal(t, StateEditing, f.State().State)

	_, ok := fx.mailbox.Take()
	assert.False(t, ok)
}

func TestSubmit_ValidationFailureStaysEditing(t *testing.T) {
	fx := newFixture(t, 2)
	f := New(fx.cart, fx.mailbox, immediate())

	form := validForm()
	form.Name = "   "
	form.PostalCode = ""
	form.PaymentMethod = "card"

	_, err := f.Submit(context.Background(), form)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "postalCode")
	assert.Contains(t, verr.Fields, "paymentMethod")
	assert.NotContains(t, verr.Fields, "city")

	assert.Equal(t, StateEditing, f.State().State)
	assert.Equal(t, 1, fx.cart.Len(), "validation failure must not clear the cart")
	_, ok := fx.mailbox.Take()
	assert.False(t, ok, "no order may be created")
}

func TestSubmit_Completes(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 2)
	pub := &fakePublisher{}
	f := New(fx.cart, fx.mailbox, immediate(), WithPublisher(pub, "session-1"))
	defer f.Wait()

	_, err := f.Enter()
	require.NoError(t, err)

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)

	r := await(t, results)
	require.NoError(t, r.Err)
	assert.True(t, r.Order.Total.Equal(money.MustParse("5.8764")), "total %s", r.Order.Total)
	assert.Equal(t, "5.88", r.Order.Total.StringFixed2())
	assert.Regexp(t, `^COLA-[0-9A-Z]{13}$`, r.Order.ID)
	assert.Equal(t, order.DefaultEstimatedDelivery, r.Order.EstimatedDelivery)
	assert.Equal(t, "Pune", r.Order.Address.City)

	assert.Equal(t, 0, fx.cart.Len())
	_, err = fx.store.Get(context.Background(), cart.StorageKey)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	st := f.State()
	assert.Equal(t, StateCompleted, st.State)
	assert.Equal(t, r.Order.ID, st.OrderID)

	conf, err := order.Confirm(fx.mailbox)
	require.NoError(t, err)
	assert.Equal(t, r.Order.ID, conf.OrderID)
	require.Len(t, conf.Items, 1)
	assert.Equal(t, 1, conf.Items[0].ID)
	assert.Equal(t, 2, conf.Items[0].Quantity)

	require.Len(t, pub.calls, 1)
	assert.Equal(t, "session-1", pub.partition)
	assert.Equal(t, r.Order.ID, pub.calls[0].ID)
}

func TestSubmit_DefaultsPaymentToUPI(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	f := New(fx.cart, fx.mailbox, immediate())
	defer f.Wait()

	form := validForm()
	form.PaymentMethod = ""
	results, err := f.Submit(context.Background(), form)
	require.NoError(t, err)

	r := await(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, order.PaymentUPI, r.Order.PaymentMethod)
}

func TestSubmit_RefusesDuplicateWhileInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	release := make(chan struct{})
	var calls atomic.Int32
	f := New(fx.cart, fx.mailbox, SubmitterFunc(func(ctx context.Context, _ order.Order) error {
		calls.Add(1)
		<-release
		return nil
	}))
	defer f.Wait()

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, StateSubmitting, f.State().State)

	_, err = f.Submit(context.Background(), validForm())
	assert.True(t, errors.Is(err, ErrSubmissionInFlight))

	st, err := f.Enter()
	require.NoError(t, err)
	assert.Equal(t, StateSubmitting, st.State)

	close(release)
	require.NoError(t, await(t, results).Err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmit_SurvivesCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	f := New(fx.cart, fx.mailbox, SimulatedSubmitter{Delay: 20 * time.Millisecond})
	defer f.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	results, err := f.Submit(ctx, validForm())
	require.NoError(t, err)
	cancel()

	r := await(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, 0, fx.cart.Len())
	_, ok := fx.mailbox.Take()
	assert.True(t, ok)
}

func TestSubmit_SnapshotIsTakenAtSubmit(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 2)
	release := make(chan struct{})
	f := New(fx.cart, fx.mailbox, SubmitterFunc(func(context.Context, order.Order) error {
		<-release
		return nil
	}))
	defer f.Wait()

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)

	require.NoError(t, fx.cart.SetQuantity(context.Background(), 1, 9))
	close(release)

	r := await(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, 2, r.Order.Items[0].Quantity)
	assert.Equal(t, 0, fx.cart.Len())
}

func TestSubmit_FailureThenRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	var calls atomic.Int32
	healthy := atomic.Bool{}
	f := New(fx.cart, fx.mailbox, SubmitterFunc(func(context.Context, order.Order) error {
		calls.Add(1)
		if healthy.Load() {
			return nil
		}
		return errors.New("upstream unavailable")
	}), WithRetry(time.Second, 2, time.Millisecond))
	defer f.Wait()

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)

	r := await(t, results)
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "upstream unavailable")
	assert.Equal(t, int32(2), calls.Load())

	st := f.State()
	assert.Equal(t, StateFailed, st.State)
	assert.NotEmpty(t, st.Error)
	assert.Equal(t, 1, fx.cart.Len(), "failed submission keeps the cart")
	_, ok := fx.mailbox.Take()
	assert.False(t, ok)

	healthy.Store(true)
	results, err = f.Submit(context.Background(), validForm())
	require.NoError(t, err)
	require.NoError(t, await(t, results).Err)
	assert.Equal(t, StateCompleted, f.State().State)
	assert.Empty(t, f.State().Error)
}

func TestSubmit_RejectedIsNotRetried(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	var calls atomic.Int32
	f := New(fx.cart, fx.mailbox, SubmitterFunc(func(context.Context, order.Order) error {
		calls.Add(1)
		return ErrRejected
	}), WithRetry(time.Second, 5, time.Millisecond))
	defer f.Wait()

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)

	r := await(t, results)
	assert.True(t, errors.Is(r.Err, ErrRejected))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmit_AttemptTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	f := New(fx.cart, fx.mailbox, SimulatedSubmitter{Delay: time.Hour}, WithRetry(10*time.Millisecond, 1, time.Millisecond))
	defer f.Wait()

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)

	r := await(t, results)
	assert.True(t, errors.Is(r.Err, context.DeadlineExceeded), "got %v", r.Err)
	assert.Equal(t, StateFailed, f.State().State)
}

func TestSubmit_PublishFailureDoesNotFailOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	pub := &fakePublisher{err: errors.New("broker down")}
	f := New(fx.cart, fx.mailbox, immediate(), WithPublisher(pub, "s"))
	defer f.Wait()

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)
	require.NoError(t, await(t, results).Err)
	assert.Equal(t, StateCompleted, f.State().State)
}

func TestEnter_AfterCompletionShowsFreshFormWithoutMutating(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	f := New(fx.cart, fx.mailbox, immediate())
	defer f.Wait()

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)
	require.NoError(t, await(t, results).Err)

	_, err = f.Enter()
	assert.True(t, errors.Is(err, ErrEmptyCart), "completed order emptied the cart")

	_, err = fx.cart.AddItem(context.Background(), classic, 1)
	require.NoError(t, err)
	st, err := f.Enter()
	require.NoError(t, err)
	assert.Equal(t, StateEditing, st.State)
	assert.Empty(t, st.OrderID)

	before := f.State()
	_, err = f.Enter()
	require.NoError(t, err)
	assert.Equal(t, before, f.State(), "opening checkout leaves the flow alone")
	assert.Equal(t, StateCompleted, f.State().State)

	results, err = f.Submit(context.Background(), validForm())
	require.NoError(t, err)
	placed := await(t, results)
	require.NoError(t, placed.Err)
	assert.NotEqual(t, before.OrderID, placed.Order.ID)
}

type countingRecorder struct {
	validation, started, ok, failed, published atomic.Int32
}

func (r *countingRecorder) ValidationFailed()  { r.validation.Add(1) }
func (r *countingRecorder) SubmissionStarted() { r.started.Add(1) }
func (r *countingRecorder) SubmissionFinished(_ time.Duration, err error) {
	if err != nil {
		r.failed.Add(1)
		return
	}
	r.ok.Add(1)
}
func (r *countingRecorder) EventPublished(error) { r.published.Add(1) }

func TestFlow_RecordsMetrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture(t, 1)
	rec := &countingRecorder{}
	f := New(fx.cart, fx.mailbox, immediate(), WithRecorder(rec), WithPublisher(&fakePublisher{}, "s"))
	defer f.Wait()

	_, err := f.Submit(context.Background(), Form{})
	require.Error(t, err)

	results, err := f.Submit(context.Background(), validForm())
	require.NoError(t, err)
	require.NoError(t, await(t, results).Err)

	assert.Equal(t, int32(1), rec.validation.Load())
	assert.Equal(t, int32(1), rec.started.Load())
	assert.Equal(t, int32(1), rec.ok.Load())
	assert.Equal(t, int32(1), rec.published.Load())
}
