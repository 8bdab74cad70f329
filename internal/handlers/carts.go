package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
)

// CreateCart handles POST /api/v1/carts
func (h *Handlers) CreateCart(c *gin.Context) {
	cart, err := h.cartService.CreateCart(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cart)
}

// GetCart handles GET /api/v1/carts/:id
func (h *Handlers) GetCart(c *gin.Context) {
	cartID := c.Param("id")

	cart, err := h.cartService.GetCart(c.Request.Context(), cartID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// AddCartItem handles POST /api/v1/carts/:id/items
func (h *Handlers) AddCartItem(c *gin.Context) {
	cartID := c.Param("id")

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Quantity defaults to one when omitted.
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := service.ValidateAddLineRequest(req.ProductID, req.Quantity); err != nil {
		handleError(c, err)
		return
	}

	line, err := h.cartService.AddLine(c.Request.Context(), cartID, req.ProductID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

// UpdateCartItem handles PATCH /api/v1/carts/:id/items/:product_id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	cartID := c.Param("id")
	productID := c.Param("product_id")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := service.ValidateQuantity(req.Quantity); err != nil {
		handleError(c, err)
		return
	}

	cart, err := h.cartService.UpdateLineQuantity(c.Request.Context(), cartID, productID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// RemoveCartItem handles DELETE /api/v1/carts/:id/items/:product_id
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	cartID := c.Param("id")
	productID := c.Param("product_id")

	removed, err := h.cartService.RemoveLine(c.Request.Context(), cartID, productID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
