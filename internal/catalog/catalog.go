package catalog

import (
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/money"
)

var ErrNotFound = errors.New("product not found")

// Product is a purchasable item. Products are owned by the catalog and never mutated.
type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// UnitPrice parses the display price.
func (p Product) UnitPrice() (money.Amount, error) {
	return money.ParsePrice(p.Price)
}

// Catalog is the static, read-only product list.
type Catalog struct {
	products []Product
	byID     map[int]int
}

// New builds a catalog and rejects duplicate ids or unparsable prices.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for _, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		if _, err := p.UnitPrice(); err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Default returns the storefront's built-in product range.
func Default() *Catalog {
	c, err := New(defaultProducts)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns the products in display order.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Get(id int) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return c.products[i], nil
}

var defaultProducts = []Product{
	{
		ID:          1,
		Name:        "Classic",
		Tagline:     "The Original",
		Price:       "$2.49",
		Image:       "/assets/product-can.jpg",
		Description: "The timeless taste that started it all. Pure refreshment in every sip.",
		Available:   true,
	},
	{
		ID:          2,
		Name:        "Zero",
		Tagline:     "Zero Sugar",
		Price:       "$2.49",
		Image:       "/assets/product-zero.jpg",
		Description: "All the taste, none of the sugar. The future of refreshment.",
		Available:   true,
	},
	{
		ID:          3,
		Name:        "Cherry",
		Tagline:     "Bold Fusion",
		Price:       "$2.79",
		Image:       "/assets/product-cherry.jpg",
		Description: "A bold twist on a classic. Cherry-infused perfection.",
		Available:   false,
	},
}
