package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// CartStore holds mutable carts until checkout.
type CartStore interface {
	Create(ctx context.Context) (*models.Cart, error)
	Get(ctx context.Context, cartID string) (*models.Cart, error)
	AddLine(ctx context.Context, cartID string, line models.CartLine) error
	UpdateLineQuantity(ctx context.Context, cartID, productID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, productID string) (bool, error)
	Clear(ctx context.Context, cartID string) (bool, error)
	Snapshot(ctx context.Context, cartID string) (*models.CartSnapshot, error)
}

// OrderStore holds immutable order aggregates, mutable only in status.
type OrderStore interface {
	CreateFromCart(ctx context.Context, cartID, customerID string) (*models.Order, error)
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*models.Order, int, error)
	UpdateStatusFromPending(ctx context.Context, orderID string, status models.OrderStatus) (bool, error)
	Delete(ctx context.Context, orderID string) error
}

// OrderCache is a read cache in front of the order store.
type OrderCache interface {
	Get(ctx context.Context, orderID string) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, orderID string) error
}

// CatalogClient resolves products at cart-mutation time.
type CatalogClient interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// PaymentGateway creates remote payment sessions for persisted orders.
type PaymentGateway interface {
	CreateSession(ctx context.Context, order *models.Order) (*models.PaymentSession, error)
}

// EventPublisher emits order lifecycle events. Publishing is best-effort;
// failures are logged, never surfaced to the customer.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderPaid(ctx context.Context, order *models.Order) error
	PublishOrderPaymentFailed(ctx context.Context, order *models.Order) error
}
