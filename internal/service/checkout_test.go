package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
)

// recordingPublisher counts published events per type.
type recordingPublisher struct {
	mu      sync.Mutex
	created []string
	paid    []string
	failed  []string
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, order.ID)
	return nil
}

func (p *recordingPublisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, order.ID)
	return nil
}

func (p *recordingPublisher) PublishOrderPaymentFailed(ctx context.Context, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, order.ID)
	return nil
}

type checkoutFixture struct {
	carts     *repository.MemoryCartStore
	orders    *repository.MemoryOrderStore
	gateway   *clients.MockPaymentGateway
	publisher *recordingPublisher
	svc       *CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	carts := repository.NewMemoryCartStore()
	orders := repository.NewMemoryOrderStore(carts)
	gateway := clients.NewMockPaymentGateway()
	publisher := &recordingPublisher{}

	svc := NewCheckoutService(
		carts,
		orders,
		repository.NoopOrderCache{},
		gateway,
		publisher,
		false,
		true,
	)

	return &checkoutFixture{
		carts:     carts,
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		svc:       svc,
	}
}

func (f *checkoutFixture) newCartWithLines(t *testing.T, lines ...models.CartLine) *models.Cart {
	t.Helper()

	cart, err := f.carts.Create(context.Background())
	require.NoError(t, err)
	for _, line := range lines {
		require.NoError(t, f.carts.AddLine(context.Background(), cart.ID, line))
	}
	return cart
}

func widgetLine(quantity int) models.CartLine {
	return models.CartLine{
		ProductID:   "prod_widget",
		ProductName: "Widget",
		UnitPrice:   models.NewMoney(1250, "USD"),
		Quantity:    quantity,
	}
}

func gadgetLine(quantity int) models.CartLine {
	return models.CartLine{
		ProductID:   "prod_gadget",
		ProductName: "Gadget",
		UnitPrice:   models.NewMoney(799, "USD"),
		Quantity:    quantity,
	}
}

func TestProcessCheckout_Committed(t *testing.T) {
	f := newCheckoutFixture(t)
	cart := f.newCartWithLines(t, widgetLine(2), gadgetLine(1))

	result, err := f.svc.ProcessCheckout(context.Background(), cart.ID, "cust_1")
	require.NoError(t, err)
	require.NotEmpty(t, result.OrderID)
	assert.NotEmpty(t, result.RedirectURL)

	order, err := f.orders.GetByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "cust_1", order.CustomerID)
	assert.Len(t, order.Lines, 2)
	assert.Equal(t, int64(2*1250+799), order.Total.Amount)

	// Session metadata correlation.
	require.Len(t, f.gateway.Sessions, 1)
	assert.Equal(t, result.OrderID, f.gateway.Sessions[0].OrderID)

	// Cart is cleared on commit.
	cleared, err := f.carts.Get(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())

	assert.Equal(t, []string{result.OrderID}, f.publisher.created)
}

func TestProcessCheckout_GatewayFailureCompensates(t *testing.T) {
	f := newCheckoutFixture(t)
	cart := f.newCartWithLines(t, widgetLine(1))

	f.gateway.FailWith = errors.New("connection refused")

	_, err := f.svc.ProcessCheckout(context.Background(), cart.ID, "cust_1")
	require.Error(t, err)

	var paymentErr *apperrors.PaymentProcessingError
	assert.ErrorAs(t, err, &paymentErr)

	// The pending order was rolled back.
	orders, total, err := f.orders.ListByCustomer(context.Background(), "cust_1", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)

	// The cart survives for retry.
	after, err := f.carts.Get(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Len(t, after.Lines, 1)

	// Retry succeeds once the gateway recovers.
	f.gateway.FailWith = nil
	result, err := f.svc.ProcessCheckout(context.Background(), cart.ID, "cust_1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderID)
}

func TestProcessCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	cart := f.newCartWithLines(t)

	_, err := f.svc.ProcessCheckout(context.Background(), cart.ID, "cust_1")

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cart_id", validationErr.Field)
	assert.Len(t, f.gateway.Sessions, 0)
}

func TestProcessCheckout_UnknownCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.ProcessCheckout(context.Background(), "crt_missing", "cust_1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProcessCheckout_MissingCustomer(t *testing.T) {
	f := newCheckoutFixture(t)
	cart := f.newCartWithLines(t, widgetLine(1))

	_, err := f.svc.ProcessCheckout(context.Background(), cart.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func checkoutOrder(t *testing.T, f *checkoutFixture) string {
	t.Helper()

	cart := f.newCartWithLines(t, widgetLine(1))
	result, err := f.svc.ProcessCheckout(context.Background(), cart.ID, "cust_1")
	require.NoError(t, err)
	return result.OrderID
}

func TestApplyPaymentEvent_Succeeded(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID := checkoutOrder(t, f)

	err := f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
		ID:      "evt_1",
		Type:    models.PaymentEventSucceeded,
		OrderID: orderID,
	})
	require.NoError(t, err)

	order, err := f.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, []string{orderID}, f.publisher.paid)
}

func TestApplyPaymentEvent_Failed(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID := checkoutOrder(t, f)

	err := f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
		ID:      "evt_1",
		Type:    models.PaymentEventFailed,
		OrderID: orderID,
	})
	require.NoError(t, err)

	order, err := f.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, order.Status)
	assert.Equal(t, []string{orderID}, f.publisher.failed)
}

func TestApplyPaymentEvent_DuplicateIsNoop(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID := checkoutOrder(t, f)

	event := &models.PaymentEvent{
		ID:      "evt_1",
		Type:    models.PaymentEventSucceeded,
		OrderID: orderID,
	}
	require.NoError(t, f.svc.ApplyPaymentEvent(context.Background(), event))
	require.NoError(t, f.svc.ApplyPaymentEvent(context.Background(), event))

	order, err := f.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	// The transition published exactly once.
	assert.Equal(t, []string{orderID}, f.publisher.paid)
}

func TestApplyPaymentEvent_TerminalStatesStick(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID := checkoutOrder(t, f)

	require.NoError(t, f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
		ID: "evt_1", Type: models.PaymentEventFailed, OrderID: orderID,
	}))

	// A late success event must not resurrect a failed order.
	require.NoError(t, f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
		ID: "evt_2", Type: models.PaymentEventSucceeded, OrderID: orderID,
	}))

	order, err := f.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, order.Status)
	assert.Empty(t, f.publisher.paid)
}

func TestApplyPaymentEvent_UnknownOrder(t *testing.T) {
	f := newCheckoutFixture(t)

	err := f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
		ID:      "evt_1",
		Type:    models.PaymentEventSucceeded,
		OrderID: "ord_missing",
	})
	assert.NoError(t, err)
}

func TestApplyPaymentEvent_MissingOrderID(t *testing.T) {
	f := newCheckoutFixture(t)

	err := f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
		ID:   "evt_1",
		Type: models.PaymentEventSucceeded,
	})
	assert.NoError(t, err)
}

func TestApplyPaymentEvent_UnhandledType(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID := checkoutOrder(t, f)

	err := f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
		ID:      "evt_1",
		Type:    "payment.refunded",
		OrderID: orderID,
	})
	require.NoError(t, err)

	order, err := f.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestApplyPaymentEvent_ConcurrentDuplicates(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID := checkoutOrder(t, f)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.svc.ApplyPaymentEvent(context.Background(), &models.PaymentEvent{
				ID:      "evt_dup",
				Type:    models.PaymentEventSucceeded,
				OrderID: orderID,
			})
		}()
	}
	wg.Wait()

	order, err := f.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	// The compare-and-set guarantees exactly one transition and one publish.
	assert.Equal(t, []string{orderID}, f.publisher.paid)
}

func TestGetOrder_Unknown(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.GetOrder(context.Background(), "ord_missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListOrders_ClampsLimit(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID := checkoutOrder(t, f)

	orders, total, err := f.svc.ListOrders(context.Background(), "cust_1", 500, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)
}
