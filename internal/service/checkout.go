package service

import (
	"context"
	"errors"
	"time"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// CheckoutService drives the cart-to-order pipeline: it converts a cart
// into a pending order, requests a payment session, commits or compensates,
// and later applies verified payment events to the order status.
type CheckoutService struct {
	carts     CartStore
	orders    OrderStore
	cache     OrderCache
	gateway   PaymentGateway
	publisher EventPublisher
	caching   bool
	events    bool
	logger    *logging.Logger
}

// NewCheckoutService creates a checkout service. cache and publisher may be
// no-ops when the corresponding features are disabled.
func NewCheckoutService(
	carts CartStore,
	orders OrderStore,
	cache OrderCache,
	gateway PaymentGateway,
	publisher EventPublisher,
	enableCaching bool,
	enableEvents bool,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		orders:    orders,
		cache:     cache,
		gateway:   gateway,
		publisher: publisher,
		caching:   enableCaching,
		events:    enableEvents,
		logger:    logging.New("checkout-service"),
	}
}

// ProcessCheckout converts a cart into a pending order and requests a
// payment session for it.
//
// The order is written before the gateway is contacted so its id can ride
// in the session metadata; if the session request then fails or times out,
// the order is deleted again (compensation) and the cart is left intact so
// the customer can retry. Once the session exists the checkout is
// committed: the cart clear is best-effort because the order has already
// succeeded from the customer's point of view.
func (s *CheckoutService) ProcessCheckout(ctx context.Context, cartID, customerID string) (*models.CheckoutResult, error) {
	start := time.Now()
	defer func() {
		metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	}()

	if customerID == "" {
		metrics.CheckoutAttempts.WithLabelValues("rejected").Inc()
		return nil, apperrors.ErrUnauthenticated
	}

	// Fail fast before any persistent write. The order store re-checks
	// emptiness inside its transaction; this read keeps the common error
	// paths free of writes.
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		metrics.CheckoutAttempts.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if cart.IsEmpty() {
		metrics.CheckoutAttempts.WithLabelValues("rejected").Inc()
		return nil, apperrors.NewValidationError("cart_id", "cart is empty")
	}

	order, err := s.orders.CreateFromCart(ctx, cartID, customerID)
	if err != nil {
		metrics.CheckoutAttempts.WithLabelValues("rejected").Inc()
		return nil, err
	}

	s.logger.Info("Order persisted, requesting payment session", logging.Fields{
		"order_id": order.ID,
		"cart_id":  cartID,
		"total":    order.Total.Amount,
	})

	session, err := s.gateway.CreateSession(ctx, order)
	if err != nil {
		s.compensate(ctx, order, err)
		metrics.CheckoutAttempts.WithLabelValues("rolled_back").Inc()
		return nil, &apperrors.PaymentProcessingError{Err: err}
	}

	if _, err := s.carts.Clear(ctx, cartID); err != nil {
		// The order and session already exist; a failed clear only risks a
		// stale cart, so it is logged and the checkout still commits.
		s.logger.Error("Failed to clear cart after checkout", logging.Fields{
			"cart_id":  cartID,
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}

	if s.caching {
		if err := s.cache.Set(ctx, order); err != nil {
			s.logger.Error("Failed to cache order", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	if s.events {
		if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
			s.logger.Error("Failed to publish order created event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	metrics.CheckoutAttempts.WithLabelValues("committed").Inc()
	s.logger.Info("Checkout committed", logging.Fields{
		"order_id":   order.ID,
		"cart_id":    cartID,
		"session_id": session.ProviderSessionID,
	})

	return &models.CheckoutResult{
		OrderID:     order.ID,
		RedirectURL: session.RedirectURL,
	}, nil
}

func (s *CheckoutService) compensate(ctx context.Context, order *models.Order, cause error) {
	metrics.Compensations.Inc()
	s.logger.Error("Session request failed, rolling back order", logging.Fields{
		"order_id": order.ID,
		"error":    cause.Error(),
	})

	if err := s.orders.Delete(ctx, order.ID); err != nil {
		// The order survives with no session attached; it stays pending
		// forever and never transitions, but flag it loudly.
		s.logger.Error("Compensating delete failed", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

// ApplyPaymentEvent applies a verified provider event to its order. Safe
// under concurrent, duplicate and out-of-order delivery: the transition is
// a compare-and-set that only fires while the order is still pending, so
// paid and failed are terminal and replays are pure no-ops.
func (s *CheckoutService) ApplyPaymentEvent(ctx context.Context, event *models.PaymentEvent) error {
	var target models.OrderStatus
	switch event.Type {
	case models.PaymentEventSucceeded:
		target = models.OrderStatusPaid
	case models.PaymentEventFailed:
		target = models.OrderStatusFailed
	default:
		// Forward-compatible with event types the provider may add.
		s.logger.Debug("Ignoring unhandled event type", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		metrics.WebhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	if event.OrderID == "" {
		s.logger.Warn("Payment event carries no order correlation", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		metrics.WebhookEvents.WithLabelValues(event.Type, "unknown_order").Inc()
		return nil
	}

	updated, err := s.orders.UpdateStatusFromPending(ctx, event.OrderID, target)
	if errors.Is(err, apperrors.ErrNotFound) {
		// The order may have been rolled back, or the event belongs to
		// another system. Non-fatal by design.
		s.logger.Warn("Payment event for unknown order", logging.Fields{
			"event_id": event.ID,
			"order_id": event.OrderID,
		})
		metrics.WebhookEvents.WithLabelValues(event.Type, "unknown_order").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	if !updated {
		s.logger.Info("Order already terminal, event ignored", logging.Fields{
			"event_id": event.ID,
			"order_id": event.OrderID,
		})
		metrics.WebhookEvents.WithLabelValues(event.Type, "duplicate").Inc()
		return nil
	}

	metrics.WebhookEvents.WithLabelValues(event.Type, "applied").Inc()
	s.logger.Info("Order status transitioned", logging.Fields{
		"event_id":   event.ID,
		"order_id":   event.OrderID,
		"new_status": target,
	})

	if s.caching {
		if err := s.cache.Delete(ctx, event.OrderID); err != nil {
			s.logger.Error("Failed to invalidate cached order", logging.Fields{
				"order_id": event.OrderID,
				"error":    err.Error(),
			})
		}
	}

	if s.events {
		order, err := s.orders.GetByID(ctx, event.OrderID)
		if err != nil {
			s.logger.Error("Failed to load order for event publish", logging.Fields{
				"order_id": event.OrderID,
				"error":    err.Error(),
			})
			return nil
		}

		var pubErr error
		if target == models.OrderStatusPaid {
			pubErr = s.publisher.PublishOrderPaid(ctx, order)
		} else {
			pubErr = s.publisher.PublishOrderPaymentFailed(ctx, order)
		}
		if pubErr != nil {
			s.logger.Error("Failed to publish order status event", logging.Fields{
				"order_id": event.OrderID,
				"error":    pubErr.Error(),
			})
		}
	}

	return nil
}

// GetOrder retrieves an order, consulting the cache first.
func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if s.caching {
		if order, err := s.cache.Get(ctx, orderID); err == nil && order != nil {
			return order, nil
		}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.caching {
		if err := s.cache.Set(ctx, order); err != nil {
			s.logger.Error("Failed to cache order", logging.Fields{
				"order_id": orderID,
				"error":    err.Error(),
			})
		}
	}
	return order, nil
}

// ListOrders returns a customer's orders, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, customerID string, limit, offset int) ([]*models.Order, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.orders.ListByCustomer(ctx, customerID, limit, offset)
}
