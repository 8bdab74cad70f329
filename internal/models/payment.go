package models

import "time"

// Product is the catalog's view of a sellable item.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// PaymentSession is the provider-side checkout session created for an
// order. Ephemeral: never persisted locally. The order id travels in the
// session metadata so inbound events can be mapped back.
type PaymentSession struct {
	OrderID           string `json:"order_id"`
	ProviderSessionID string `json:"provider_session_id"`
	RedirectURL       string `json:"redirect_url"`
}

// Payment event types emitted by the provider. Unknown types are ignored so
// new provider events cannot break reconciliation.
const (
	PaymentEventSucceeded = "payment.succeeded"
	PaymentEventFailed    = "payment.failed"
)

// PaymentEvent is a verified provider notification. OrderID comes from the
// order_id metadata the gateway request embedded.
type PaymentEvent struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	OrderID           string    `json:"order_id"`
	ProviderSessionID string    `json:"provider_session_id"`
	ReceivedAt        time.Time `json:"received_at"`
}

// CheckoutResult is what a committed checkout returns to the client.
type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}
