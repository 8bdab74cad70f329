package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
)

// Server wraps the HTTP server and routing for the checkout service.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	srv      *http.Server
}

// New creates the server and registers all routes.
func New(h *handlers.Handlers, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(customerIdentity())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// customerIdentity propagates the customer id resolved by the API gateway.
// Identity enforcement happens per-route in the services; carts and
// webhooks are reachable without it.
func customerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if customerID := c.GetHeader("X-Customer-ID"); customerID != "" {
			c.Set("customer_id", customerID)
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/version", s.handlers.Version)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/carts", s.handlers.CreateCart)
		v1.GET("/carts/:id", s.handlers.GetCart)
		v1.POST("/carts/:id/items", s.handlers.AddCartItem)
		v1.PATCH("/carts/:id/items/:product_id", s.handlers.UpdateCartItem)
		v1.DELETE("/carts/:id/items/:product_id", s.handlers.RemoveCartItem)

		v1.POST("/checkout", s.handlers.Checkout)

		v1.GET("/orders/:id", s.handlers.GetOrder)
		v1.GET("/orders", s.handlers.ListOrders)

		v1.POST("/webhooks/payment", s.handlers.PaymentWebhook)
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server. Blocks until Shutdown or failure.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
