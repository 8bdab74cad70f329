package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// HTTPPaymentGateway creates remote checkout sessions with the payment
// provider. Per-line amounts come from the persisted order lines, never the
// live cart, and the order id rides in the session metadata so the webhook
// path can correlate events back to exactly one order.
type HTTPPaymentGateway struct {
	baseURL    string
	apiKey     string
	successURL string
	cancelURL  string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPPaymentGateway creates an HTTP-based payment gateway client. The
// client timeout doubles as the session-request deadline: a timed-out
// request surfaces as a GatewayError and triggers the same compensation
// path as an explicit provider rejection.
func NewHTTPPaymentGateway(cfg config.PaymentConfig, logger *logging.Logger) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type sessionLineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Quantity   int    `json:"quantity"`
}

type sessionRequest struct {
	Mode       string            `json:"mode"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	LineItems  []sessionLineItem `json:"line_items"`
	Metadata   map[string]string `json:"metadata"`
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSession requests a checkout session for an order.
func (g *HTTPPaymentGateway) CreateSession(ctx context.Context, order *models.Order) (*models.PaymentSession, error) {
	g.logger.Debug("Creating payment session", logging.Fields{
		"order_id":   order.ID,
		"line_count": len(order.Lines),
		"total":      order.Total.Amount,
	})

	req := sessionRequest{
		Mode:       "payment",
		SuccessURL: g.successURL,
		CancelURL:  g.cancelURL,
		LineItems:  make([]sessionLineItem, len(order.Lines)),
		Metadata:   map[string]string{"order_id": order.ID},
	}
	for i, line := range order.Lines {
		req.LineItems[i] = sessionLineItem{
			Name:       line.ProductName,
			UnitAmount: line.UnitPrice.Amount,
			Currency:   line.UnitPrice.Currency,
			Quantity:   line.Quantity,
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/checkout/sessions", g.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.logger.Error("Session request failed", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return nil, &apperrors.GatewayError{Op: "create_session", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		g.logger.Error("Session request rejected", logging.Fields{
			"order_id":    order.ID,
			"status_code": resp.StatusCode,
		})
		return nil, &apperrors.GatewayError{Op: "create_session", StatusCode: resp.StatusCode}
	}

	var result sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &apperrors.GatewayError{Op: "create_session", Err: err}
	}

	g.logger.Info("Payment session created", logging.Fields{
		"order_id":   order.ID,
		"session_id": result.ID,
	})

	return &models.PaymentSession{
		OrderID:           order.ID,
		ProviderSessionID: result.ID,
		RedirectURL:       result.URL,
	}, nil
}

// MockPaymentGateway is an in-memory gateway for tests. Set FailWith to
// force the compensation path.
type MockPaymentGateway struct {
	mu       sync.Mutex
	FailWith error
	Sessions []*models.PaymentSession
}

// NewMockPaymentGateway creates a mock gateway that succeeds by default.
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

func (m *MockPaymentGateway) CreateSession(ctx context.Context, order *models.Order) (*models.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	session := &models.PaymentSession{
		OrderID:           order.ID,
		ProviderSessionID: "cs_" + uuid.NewString(),
		RedirectURL:       "https://pay.example.com/session/" + order.ID,
	}
	m.Sessions = append(m.Sessions, session)
	return session, nil
}
