package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
)

func newCartFixture(t *testing.T) (*CartService, *clients.MockCatalogClient) {
	t.Helper()

	catalog := clients.NewMockCatalogClient()
	catalog.Add(&models.Product{
		ID:    "prod_widget",
		Name:  "Widget",
		Price: models.NewMoney(1250, "USD"),
	})

	svc := NewCartService(repository.NewMemoryCartStore(), catalog)
	return svc, catalog
}

func TestAddLine_CapturesCatalogNameAndPrice(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	line, err := svc.AddLine(context.Background(), cart.ID, "prod_widget", 3)
	require.NoError(t, err)

	assert.Equal(t, "Widget", line.ProductName)
	assert.Equal(t, int64(1250), line.UnitPrice.Amount)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, int64(3750), line.LineTotal().Amount)
}

func TestAddLine_PriceCapturedAtAddTime(t *testing.T) {
	svc, catalog := newCartFixture(t)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), cart.ID, "prod_widget", 1)
	require.NoError(t, err)

	// A later catalog price change does not leak into existing lines.
	catalog.Add(&models.Product{
		ID:    "prod_widget",
		Name:  "Widget",
		Price: models.NewMoney(9999, "USD"),
	})

	got, err := svc.GetCart(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(1250), got.Lines[0].UnitPrice.Amount)
}

func TestAddLine_DuplicateProductRejected(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), cart.ID, "prod_widget", 2)
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), cart.ID, "prod_widget", 5)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// The original line is untouched.
	got, err := svc.GetCart(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestAddLine_UnknownProduct(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), cart.ID, "prod_missing", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddLine_UnknownCart(t *testing.T) {
	svc, _ := newCartFixture(t)

	_, err := svc.AddLine(context.Background(), "crt_missing", "prod_widget", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateLineQuantity(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), cart.ID, "prod_widget", 1)
	require.NoError(t, err)

	updated, err := svc.UpdateLineQuantity(context.Background(), cart.ID, "prod_widget", 7)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, 7, updated.Lines[0].Quantity)
}

func TestUpdateLineQuantity_MissingLine(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, err = svc.UpdateLineQuantity(context.Background(), cart.ID, "prod_widget", 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveLine_Idempotent(t *testing.T) {
	svc, _ := newCartFixture(t)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), cart.ID, "prod_widget", 1)
	require.NoError(t, err)

	removed, err := svc.RemoveLine(context.Background(), cart.ID, "prod_widget")
	require.NoError(t, err)
	assert.True(t, removed)

	// Retried removal reports nothing to remove but does not error.
	removed, err = svc.RemoveLine(context.Background(), cart.ID, "prod_widget")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestValidateAddLineRequest(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		wantErr   bool
	}{
		{"valid", "prod_widget", 1, false},
		{"missing product", "", 1, true},
		{"zero quantity", "prod_widget", 0, true},
		{"negative quantity", "prod_widget", -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddLineRequest(tt.productID, tt.quantity)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
