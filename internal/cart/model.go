package cart

import (
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/money"
)

// Item is one ledger line: a product snapshot and how many of it.
type Item struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

// LineTotal is unit price times quantity. Items only enter a ledger with a
// parsable price, so the parse error is not reachable here.
func (it Item) LineTotal() money.Amount {
	unit, err := it.UnitPrice()
	if err != nil {
		return money.Zero
	}
	return unit.MulInt(it.Quantity)
}

// Line is the display projection of an Item.
type Line struct {
	Item
	Total string `json:"lineTotal"`
}

// Summary is what the cart drawer renders. Amounts are rounded to 2dp.
type Summary struct {
	Items    []Line `json:"items"`
	Count    int    `json:"count"`
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
	IsOpen   bool   `json:"isOpen"`
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
