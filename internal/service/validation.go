package service

import (
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
)

// ValidateAddLineRequest validates a request to add a product to a cart.
func ValidateAddLineRequest(productID string, quantity int) error {
	if productID == "" {
		return apperrors.NewValidationError("product_id", "product ID is required")
	}

	if quantity < 1 {
		return apperrors.NewValidationError("quantity", "quantity must be at least 1")
	}

	return nil
}

// ValidateQuantity validates a quantity update for an existing cart line.
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return apperrors.NewValidationError("quantity", "quantity must be at least 1")
	}

	return nil
}

// ValidateCheckoutRequest validates a checkout request.
func ValidateCheckoutRequest(cartID string) error {
	if cartID == "" {
		return apperrors.NewValidationError("cart_id", "cart ID is required")
	}

	return nil
}
