package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "cart")
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	require.NoError(t, s.Put(ctx, "cart", []byte(`[{"id":1}]`)))
	got, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))

	require.NoError(t, s.Put(ctx, "cart", []byte(`[]`)))
	got, err = s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "cart"))
	_, err = s.Get(ctx, "cart")
	assert.True(t, errors.Is(err, ErrNotFound))

	// deleting an absent key is not an error
	require.NoError(t, s.Delete(ctx, "cart"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", v))
	v[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestNamespace_IsolatesKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	a := Namespace(base, "session/a/")
	b := Namespace(base, "session/b/")

	require.NoError(t, a.Put(ctx, "cart", []byte("A")))
	require.NoError(t, b.Put(ctx, "cart", []byte("B")))

	got, err := a.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "A", string(got))

	raw, err := base.Get(ctx, "session/b/cart")
	require.NoError(t, err)
	assert.Equal(t, "B", string(raw))

	require.NoError(t, a.Delete(ctx, "cart"))
	_, err = b.Get(ctx, "cart")
	require.NoError(t, err)

	exerciseStore(t, Namespace(base, "session/c/"))
}
