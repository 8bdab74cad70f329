package models

import "time"

// OrderStatus is the payment reconciliation state of an order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Terminal reports whether the status accepts no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// Valid reports whether the status is one of the known values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFailed:
		return true
	}
	return false
}

// OrderLine captures product id, price and quantity verbatim from the cart
// at checkout time. Never recomputed from live catalog prices.
type OrderLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   Money  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   Money  `json:"line_total"`
}

// Order is the immutable unit of payment reconciliation. Only Status
// changes after creation, and only pending -> paid or pending -> failed.
// A persisted order always has at least one line, and Total equals the sum
// of its line totals at creation.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	Status     OrderStatus `json:"status"`
	Lines      []OrderLine `json:"lines"`
	Total      Money       `json:"total"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// SumLines recomputes the total from the lines. Used for invariant checks,
// not for pricing.
func (o *Order) SumLines() Money {
	var total Money
	for _, l := range o.Lines {
		total = total.Add(l.LineTotal)
	}
	return total
}
