package models

import "time"

// CartLine is one product entry in a cart. UnitPrice is captured from the
// catalog when the line is added and is not re-read at checkout, so a price
// change mid-session cannot shift an in-flight total.
type CartLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   Money  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (l CartLine) LineTotal() Money {
	return l.UnitPrice.Mul(l.Quantity)
}

// Cart holds a customer's pre-checkout lines. At most one line per product;
// quantity is at least 1 on every line.
type Cart struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Lines     []CartLine `json:"lines"`
}

// HasProduct reports whether the cart already carries a line for the product.
func (c *Cart) HasProduct(productID string) bool {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}

// FindLine returns the line for a product, if present.
func (c *Cart) FindLine(productID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total sums all line totals.
func (c *Cart) Total() Money {
	var total Money
	for _, l := range c.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// CartSnapshot is an immutable priced copy of a cart, consumed by checkout.
type CartSnapshot struct {
	CartID string     `json:"cart_id"`
	Lines  []CartLine `json:"lines"`
	Total  Money      `json:"total"`
}
