package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// Session is one visitor's cart, checkout flow and confirmation mailbox.
type Session struct {
	ID       string
	Cart     *cart.Cart
	Checkout *checkout.Flow
	Mailbox  *order.Mailbox

	lastSeen time.Time
}

// Factory builds the per-visitor components.
type Factory struct {
	Store       storage.Store
	CartOpts    []cart.Option
	Submitter   checkout.Submitter
	Publisher   checkout.OrderPublisher
	FlowOpts    []checkout.Option
	IDGenerator *order.IDGenerator
}

func (f Factory) build(ctx context.Context, id string, logger *zap.Logger) *Session {
	cartOpts := append([]cart.Option{cart.WithLogger(logger)}, f.CartOpts...)
	c := cart.Load(ctx, storage.Namespace(f.Store, keyPrefix(id)), cartOpts...)
	mb := order.NewMailbox()

	opts := append([]checkout.Option{checkout.WithLogger(logger)}, f.FlowOpts...)
	if f.IDGenerator != nil {
		opts = append(opts, checkout.WithIDGenerator(f.IDGenerator))
	}
	if f.Publisher != nil {
		opts = append(opts, checkout.WithPublisher(f.Publisher, id))
	}

	return &Session{
		ID:       id,
		Cart:     c,
		Checkout: checkout.New(c, mb, f.Submitter, opts...),
		Mailbox:  mb,
	}
}

func keyPrefix(id string) string {
	return "session/" + id + "/"
}

type GaugeSetter interface {
	SetActiveSessions(n int)
}

// Registry keeps live sessions in memory. A session dropped by Sweep is
// rebuilt from storage on the visitor's next request.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	logger  *zap.Logger
	gauge   GaugeSetter
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(factory Factory, idleTTL time.Duration, logger *zap.Logger, gauge GaugeSetter) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		logger:   logger,
		gauge:    gauge,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, loading it on first use.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = r.factory.build(ctx, id, r.logger.With(zap.String("session_id", id)))
		r.sessions[id] = s
		r.reportLocked()
	}
	s.lastSeen = r.now()
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL. Sessions with a
// submission in flight are kept so its result stays reachable.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	dropped := 0
	for id, s := range r.sessions {
		if s.lastSeen.After(cutoff) {
			continue
		}
		if s.Checkout.State().State == checkout.StateSubmitting {
			continue
		}
		delete(r.sessions, id)
		dropped++
	}
	if dropped > 0 {
		r.logger.Debug("swept idle sessions", zap.Int("dropped", dropped), zap.Int("live", len(r.sessions)))
		r.reportLocked()
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Wait blocks until every session's in-flight submission has finished.
func (r *Registry) Wait() {
	r.mu.Lock()
	flows := make([]*checkout.Flow, 0, len(r.sessions))
	for _, s := range r.sessions {
		flows = append(flows, s.Checkout)
	}
	r.mu.Unlock()

	for _, f := range flows {
		f.Wait()
	}
}

func (r *Registry) reportLocked() {
	if r.gauge != nil {
		r.gauge.SetActiveSessions(len(r.sessions))
	}
}
