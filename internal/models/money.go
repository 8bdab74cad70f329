package models

import "fmt"

// Money is an amount in the smallest currency unit (cents, paise).
// Integer arithmetic avoids the rounding drift that matters for totals.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money value.
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Mul scales the amount by a quantity.
func (m Money) Mul(qty int) Money {
	return Money{Amount: m.Amount * int64(qty), Currency: m.Currency}
}

// Add sums two amounts. Currencies must already agree; a cart never mixes
// currencies because every line price comes from the same catalog.
func (m Money) Add(other Money) Money {
	if m.Currency == "" {
		m.Currency = other.Currency
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
