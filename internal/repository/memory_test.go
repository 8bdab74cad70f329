package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func seedCart(t *testing.T, carts *MemoryCartStore) *models.Cart {
	t.Helper()

	cart, err := carts.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, carts.AddLine(context.Background(), cart.ID, models.CartLine{
		ProductID:   "prod_widget",
		ProductName: "Widget",
		UnitPrice:   models.NewMoney(1250, "USD"),
		Quantity:    2,
	}))
	return cart
}

func TestMemoryOrderStore_CreateFromCart(t *testing.T) {
	carts := NewMemoryCartStore()
	orders := NewMemoryOrderStore(carts)
	cart := seedCart(t, carts)

	order, err := orders.CreateFromCart(context.Background(), cart.ID, "cust_1")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, int64(2500), order.Lines[0].LineTotal.Amount)
	assert.Equal(t, int64(2500), order.Total.Amount)

	// Snapshot copies the lines; later cart edits must not touch the order.
	require.NoError(t, carts.UpdateLineQuantity(context.Background(), cart.ID, "prod_widget", 9))
	again, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestMemoryOrderStore_CreateFromEmptyCart(t *testing.T) {
	carts := NewMemoryCartStore()
	orders := NewMemoryOrderStore(carts)

	cart, err := carts.Create(context.Background())
	require.NoError(t, err)

	_, err = orders.CreateFromCart(context.Background(), cart.ID, "cust_1")

	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestMemoryOrderStore_UpdateStatusFromPending(t *testing.T) {
	carts := NewMemoryCartStore()
	orders := NewMemoryOrderStore(carts)
	cart := seedCart(t, carts)

	order, err := orders.CreateFromCart(context.Background(), cart.ID, "cust_1")
	require.NoError(t, err)

	updated, err := orders.UpdateStatusFromPending(context.Background(), order.ID, models.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, updated)

	// Terminal state: further transitions report false without error.
	updated, err = orders.UpdateStatusFromPending(context.Background(), order.ID, models.OrderStatusFailed)
	require.NoError(t, err)
	assert.False(t, updated)

	got, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
}

func TestMemoryOrderStore_UpdateStatusUnknownOrder(t *testing.T) {
	orders := NewMemoryOrderStore(NewMemoryCartStore())

	_, err := orders.UpdateStatusFromPending(context.Background(), "ord_missing", models.OrderStatusPaid)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryOrderStore_Delete(t *testing.T) {
	carts := NewMemoryCartStore()
	orders := NewMemoryOrderStore(carts)
	cart := seedCart(t, carts)

	order, err := orders.CreateFromCart(context.Background(), cart.ID, "cust_1")
	require.NoError(t, err)

	require.NoError(t, orders.Delete(context.Background(), order.ID))

	_, err = orders.GetByID(context.Background(), order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The cart is untouched by order deletion.
	got, err := carts.Get(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)
}
