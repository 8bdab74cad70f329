package service

import (
	"context"
	"errors"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// CartService keeps a cart's line items consistent: no duplicate product
// lines, quantity of at least one on every line.
type CartService struct {
	carts   CartStore
	catalog CatalogClient
	logger  *logging.Logger
}

// NewCartService creates a cart service.
func NewCartService(carts CartStore, catalog CatalogClient) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		logger:  logging.New("cart-service"),
	}
}

// CreateCart allocates a new empty cart.
func (s *CartService) CreateCart(ctx context.Context) (*models.Cart, error) {
	return s.carts.Create(ctx)
}

// GetCart loads a cart by id.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*models.Cart, error) {
	return s.carts.Get(ctx, cartID)
}

// AddLine adds a product to a cart, capturing the catalog name and price
// on the line at add time. Re-adding a product already in the cart is
// rejected with ErrConflict rather than merged into the existing line;
// callers adjust quantities through UpdateLineQuantity.
func (s *CartService) AddLine(ctx context.Context, cartID, productID string, quantity int) (*models.CartLine, error) {
	s.logger.Info("Adding cart line", logging.Fields{
		"cart_id":    cartID,
		"product_id": productID,
		"quantity":   quantity,
	})

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Product not found", logging.Fields{"product_id": productID})
		}
		return nil, err
	}

	line := models.CartLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
	}
	if err := s.carts.AddLine(ctx, cartID, line); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			s.logger.Warn("Product already in cart", logging.Fields{
				"cart_id":    cartID,
				"product_id": productID,
			})
		}
		return nil, err
	}
	return &line, nil
}

// UpdateLineQuantity sets the quantity of an existing line and returns the
// updated cart. Quantity bounds are validated at the handler boundary.
func (s *CartService) UpdateLineQuantity(ctx context.Context, cartID, productID string, quantity int) (*models.Cart, error) {
	if err := s.carts.UpdateLineQuantity(ctx, cartID, productID, quantity); err != nil {
		return nil, err
	}
	return s.carts.Get(ctx, cartID)
}

// RemoveLine removes a product line. Returns false when the line was
// already absent, so retried removals are a no-op rather than an error.
func (s *CartService) RemoveLine(ctx context.Context, cartID, productID string) (bool, error) {
	removed, err := s.carts.RemoveLine(ctx, cartID, productID)
	if err != nil {
		return false, err
	}
	if !removed {
		s.logger.Debug("Remove was a no-op", logging.Fields{
			"cart_id":    cartID,
			"product_id": productID,
		})
	}
	return removed, nil
}

// Snapshot returns an immutable priced copy of a cart.
func (s *CartService) Snapshot(ctx context.Context, cartID string) (*models.CartSnapshot, error) {
	return s.carts.Snapshot(ctx, cartID)
}
