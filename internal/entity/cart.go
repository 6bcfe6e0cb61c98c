package entity

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("unit price cannot be negative")
	ErrProductRequired = errors.New("product id is required")
)

// LineItem is one product entry in a cart.
type LineItem struct {
	ProductID         string              `json:"productId"`
	Name              string              `json:"name,omitempty"`
	UnitPrice         decimal.Decimal     `json:"unitPrice"`
	OriginalUnitPrice decimal.NullDecimal `json:"originalUnitPrice"`
	Quantity          int                 `json:"quantity"`
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart keeps line items in insertion order, unique by ProductID.
type Cart struct {
	Items []LineItem `json:"items"`
}

func (c *Cart) index(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) Find(productID string) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// Add appends the item, or adds its quantity to the existing entry for the
// same product. The unit price of an existing entry is refreshed.
func (c *Cart) Add(item LineItem) error {
	if item.ProductID == "" {
		return ErrProductRequired
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.UnitPrice.IsNegative() {
		return ErrInvalidPrice
	}
	if i := c.index(item.ProductID); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		c.Items[i].UnitPrice = item.UnitPrice
		c.Items[i].OriginalUnitPrice = item.OriginalUnitPrice
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.Items[i].Quantity = quantity
	return nil
}

func (c *Cart) Increment(productID string) error {
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.Items[i].Quantity++
	return nil
}

// Decrement lowers the quantity by one. At quantity 1 it is a no-op: the
// line item stays in the cart until removed explicitly.
func (c *Cart) Decrement(productID string) error {
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	if c.Items[i].Quantity > 1 {
		c.Items[i].Quantity--
	}
	return nil
}

func (c *Cart) Remove(productID string) error {
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the exact sum of unitPrice × quantity, unrounded.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}
