package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/webhook"
)

// Checkout handles POST /api/v1/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	var req struct {
		CartID string `json:"cart_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := service.ValidateCheckoutRequest(req.CartID); err != nil {
		handleError(c, err)
		return
	}

	customerID := ""
	if v, exists := c.Get("customer_id"); exists {
		customerID = v.(string)
	}

	result, err := h.checkoutService.ProcessCheckout(c.Request.Context(), req.CartID, customerID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":     result.OrderID,
		"redirect_url": result.RedirectURL,
	})
}

// PaymentWebhook handles POST /api/v1/webhooks/payment
//
// The body is verified against the provider signature over the raw bytes
// before any decoding. Verification failures return 400 so the provider
// retries; reconciliation outcomes (unknown order, duplicate) return 200
// because redelivery cannot change them.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader(webhook.SignatureHeader))
	if err != nil {
		h.logger.Warn("Webhook rejected", logging.Fields{"error": err.Error()})
		metrics.WebhookRejected.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if err := h.checkoutService.ApplyPaymentEvent(c.Request.Context(), event); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
