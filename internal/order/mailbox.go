package order

import "sync"

// Mailbox is a single-slot, consume-once hand-off between checkout and
// confirmation. A newer delivery replaces an unread one.
type Mailbox struct {
	mu      sync.Mutex
	pending *Order
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

func (m *Mailbox) Deliver(o Order) {
	c := o.Clone()

	m.mu.Lock()
	m.pending = &c
	m.mu.Unlock()
}

// Take returns the pending order and empties the slot.
func (m *Mailbox) Take() (Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return Order{}, false
	}
	o := *m.pending
	m.pending = nil
	return o, true
}
