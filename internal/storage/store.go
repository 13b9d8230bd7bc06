package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no entry.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key/value store. Writes are synchronous: once Put or
// Delete returns nil the change survives a process restart.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type namespaced struct {
	next   Store
	prefix string
}

// Namespace scopes every key of next under prefix.
func Namespace(next Store, prefix string) Store {
	return &namespaced{next: next, prefix: prefix}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.next.Get(ctx, n.prefix+key)
}

func (n *namespaced) Put(ctx context.Context, key string, value []byte) error {
	return n.next.Put(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.next.Delete(ctx, n.prefix+key)
}
