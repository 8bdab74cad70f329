package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// HTTPCatalogClient reads product data from the catalog service. The
// checkout service only ever needs point lookups at cart-mutation time.
type HTTPCatalogClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPCatalogClient creates an HTTP-based catalog client.
func NewHTTPCatalogClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPCatalogClient {
	return &HTTPCatalogClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// GetProduct fetches a product by id. Returns apperrors.ErrNotFound when
// the catalog does not know the product.
func (c *HTTPCatalogClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	c.logger.Debug("Fetching product", logging.Fields{"product_id": productID})

	url := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, productID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Catalog request failed", logging.Fields{
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var product models.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, err
	}

	return &product, nil
}

// MockCatalogClient is an in-memory catalog for tests.
type MockCatalogClient struct {
	Products map[string]*models.Product
}

// NewMockCatalogClient creates an empty mock catalog.
func NewMockCatalogClient() *MockCatalogClient {
	return &MockCatalogClient{Products: make(map[string]*models.Product)}
}

// Add registers a product in the mock catalog.
func (m *MockCatalogClient) Add(p *models.Product) {
	m.Products[p.ID] = p
}

func (m *MockCatalogClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	if p, ok := m.Products[productID]; ok {
		return p, nil
	}
	return nil, apperrors.ErrNotFound
}
