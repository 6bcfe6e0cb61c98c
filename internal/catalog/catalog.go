// Package catalog is the read-only product lookup carts price against.
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aq2208/storefront-checkout/internal/entity"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	InStock       bool                `json:"inStock"`
}

// LineItem prices qty units of p at its current price.
func (p Product) LineItem(qty int) entity.LineItem {
	return entity.LineItem{
		ProductID:         p.ID,
		Name:              p.Name,
		UnitPrice:         p.Price,
		OriginalUnitPrice: p.OriginalPrice,
		Quantity:          qty,
	}
}

type Catalog struct {
	byID  map[string]Product
	order []string
}

func New(products []Product) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		if p.ID == "" {
			return nil, errors.New("catalog: product without id")
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("catalog: product %s has negative price", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %s", p.ID)
		}
		c.byID[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

func (c *Catalog) Get(id string) (Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

// List returns products in definition order.
func (c *Catalog) List() []Product {
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func DefaultProducts() []Product {
	price := decimal.RequireFromString
	was := func(s string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(s)) }
	return []Product{
		{ID: "1", Name: "Premium Wireless Headphones Pro", Category: "electronics", Price: price("299.99"), OriginalPrice: was("399.99"), InStock: true},
		{ID: "2", Name: "Ultra-Slim Laptop 15 Pro", Category: "electronics", Price: price("1299.99"), OriginalPrice: was("1499.99"), InStock: true},
		{ID: "3", Name: "Smart Watch Series X", Category: "electronics", Price: price("449.99"), InStock: true},
		{ID: "4", Name: "Designer Leather Jacket", Category: "fashion", Price: price("399.99"), OriginalPrice: was("549.99"), InStock: true},
		{ID: "5", Name: "Ergonomic Office Chair Pro", Category: "home", Price: price("549.99"), OriginalPrice: was("699.99"), InStock: true},
		{ID: "6", Name: "Professional DSLR Camera Kit", Category: "electronics", Price: price("1899.99"), InStock: true},
		{ID: "7", Name: "Running Shoes Ultra Boost", Category: "sports", Price: price("179.99"), OriginalPrice: was("219.99"), InStock: true},
		{ID: "8", Name: "Luxury Skincare Set", Category: "beauty", Price: price("249.99"), OriginalPrice: was("320.00"), InStock: true},
		{ID: "9", Name: "Premium Birch Plywood 3/4\" x 4' x 8'", Category: "home", Price: price("89.99"), InStock: true},
		{ID: "10", Name: "Oak Plywood 1/2\" x 4' x 8' - Premium Grade", Category: "home", Price: price("129.99"), OriginalPrice: was("159.99"), InStock: true},
		{ID: "11", Name: "Maple Plywood 3/4\" x 4' x 8'", Category: "home", Price: price("149.99"), OriginalPrice: was("189.99"), InStock: true},
	}
}
