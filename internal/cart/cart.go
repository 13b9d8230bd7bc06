package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/money"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// StorageKey is the entry the ledger is persisted under.
const StorageKey = "cart"

// MaxQuantity caps a single line.
const MaxQuantity = 999

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
	ErrInvalidPrice    = money.ErrInvalidPrice
)

// Cart is the line-item ledger of one visitor. Every mutation is written
// through to the store before it becomes visible.
type Cart struct {
	mu      sync.Mutex
	store   storage.Store
	logger  *zap.Logger
	taxRate decimal.Decimal

	items []Item
	open  bool
}

type Option func(*Cart)

func WithTaxRate(rate decimal.Decimal) Option {
	return func(c *Cart) { c.taxRate = rate }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cart) { c.logger = logger }
}

// Load restores the ledger from store. An absent, unreadable or malformed
// entry yields an empty cart.
func Load(ctx context.Context, store storage.Store, opts ...Option) *Cart {
	c := &Cart{
		store:   store,
		logger:  zap.NewNop(),
		taxRate: decimal.RequireFromString(money.DefaultTaxRate),
	}
	for _, opt := range opts {
		opt(c)
	}

	raw, err := store.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c
	case err != nil:
		c.logger.Warn("cart read failed, starting empty", zap.Error(err))
		return c
	}

	items, err := Decode(raw)
	if err != nil {
		c.logger.Warn("discarding persisted cart", zap.Error(err))
		return c
	}
	c.items = items
	return c
}

// AddItem adds quantity units of p. An existing line for the same product
// only has its quantity increased; merged reports which case applied.
// Adding always opens the cart drawer.
func (c *Cart) AddItem(ctx context.Context, p catalog.Product, quantity int) (merged bool, err error) {
	if quantity < 1 || quantity > MaxQuantity {
		return false, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if _, err := p.UnitPrice(); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := cloneItems(c.items)
	if i := indexOf(next, p.ID); i >= 0 {
		if next[i].Quantity > MaxQuantity-quantity {
			return false, fmt.Errorf("%w: line would hold %d+%d", ErrInvalidQuantity, next[i].Quantity, quantity)
		}
		next[i].Quantity += quantity
		merged = true
	} else {
		next = append(next, Item{Product: p, Quantity: quantity})
	}

	if err := c.commit(ctx, next); err != nil {
		return false, err
	}
	c.open = true
	return merged, nil
}

// RemoveItem drops the line for id. Unknown ids are ignored.
func (c *Cart) RemoveItem(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.removeLocked(ctx, id)
}

// SetQuantity overwrites the quantity of the line for id. A quantity of zero
// or less removes the line. Unknown ids are ignored.
func (c *Cart) SetQuantity(ctx context.Context, id, quantity int) error {
	if quantity > MaxQuantity {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		return c.removeLocked(ctx, id)
	}

	i := indexOf(c.items, id)
	if i < 0 {
		return nil
	}
	next := cloneItems(c.items)
	next[i].Quantity = quantity
	return c.commit(ctx, next)
}

// Clear empties the ledger and deletes its storage entry.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	c.items = nil
	return nil
}

func (c *Cart) removeLocked(ctx context.Context, id int) error {
	i := indexOf(c.items, id)
	if i < 0 {
		return nil
	}
	next := make([]Item, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	next = append(next, c.items[i+1:]...)
	return c.commit(ctx, next)
}

// commit persists next and only then makes it the live ledger.
func (c *Cart) commit(ctx context.Context, next []Item) error {
	raw, err := Encode(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.store.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	c.items = next
	return nil
}

func (c *Cart) SetOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Items returns a copy of the ledger in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneItems(c.items)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count is the total number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Subtotal() money.Amount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return subtotal(c.items)
}

func (c *Cart) Tax() money.Amount {
	return c.Subtotal().Mul(c.taxRate)
}

func (c *Cart) Total() money.Amount {
	sub := c.Subtotal()
	return sub.Add(sub.Mul(c.taxRate))
}

// Snapshot returns the ledger and its total read under one lock.
func (c *Cart) Snapshot() ([]Item, money.Amount) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := subtotal(c.items)
	return cloneItems(c.items), sub.Add(sub.Mul(c.taxRate))
}

func (c *Cart) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{Items: make([]Line, 0, len(c.items)), IsOpen: c.open}
	for _, it := range c.items {
		s.Items = append(s.Items, Line{Item: it, Total: it.LineTotal().StringFixed2()})
		s.Count += it.Quantity
	}
	sub := subtotal(c.items)
	tax := sub.Mul(c.taxRate)
	s.Subtotal = sub.StringFixed2()
	s.Tax = tax.StringFixed2()
	s.Total = sub.Add(tax).StringFixed2()
	return s
}

func subtotal(items []Item) money.Amount {
	sum := money.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func indexOf(items []Item, id int) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
