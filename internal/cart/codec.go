package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed cart payload")

// Encode renders the ledger in its persisted layout: a JSON array of
// product fields plus quantity, in insertion order.
func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// Decode parses a persisted ledger and rejects anything a live ledger could
// not hold.
func Decode(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", ErrMalformed, it.ID, it.Quantity)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d", ErrMalformed, it.ID)
		}
		seen[it.ID] = struct{}{}
		if _, err := it.UnitPrice(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return items, nil
}
