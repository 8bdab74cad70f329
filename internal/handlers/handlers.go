package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/webhook"
)

// Handlers holds all HTTP handlers for the checkout service.
type Handlers struct {
	cartService     *service.CartService
	checkoutService *service.CheckoutService
	verifier        *webhook.Verifier
	config          *config.Config
	logger          *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	verifier *webhook.Verifier,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		cartService:     cartService,
		checkoutService: checkoutService,
		verifier:        verifier,
		config:          cfg,
		logger:          logging.New("handlers"),
	}
}

func handleError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
		return
	}

	if errors.Is(err, apperrors.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "customer identity is required"})
		return
	}

	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var paymentErr *apperrors.PaymentProcessingError
	if errors.As(err, &paymentErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment session could not be created"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
