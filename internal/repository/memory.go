package repository

import (
	"context"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// MemoryCartStore is a mutex-serialized in-memory cart store. It backs
// service tests and local development; the per-store mutex gives the same
// per-cart serialization the Postgres store gets from row locks.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

// NewMemoryCartStore creates an empty in-memory cart store.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]*models.Cart)}
}

func (s *MemoryCartStore) Create(ctx context.Context) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := &models.Cart{
		ID:        newCartID(),
		CreatedAt: time.Now().UTC(),
		Lines:     []models.CartLine{},
	}
	s.carts[cart.ID] = cart
	return copyCart(cart), nil
}

func (s *MemoryCartStore) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyCart(cart), nil
}

func (s *MemoryCartStore) AddLine(ctx context.Context, cartID string, line models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if cart.HasProduct(line.ProductID) {
		return apperrors.ErrConflict
	}
	cart.Lines = append(cart.Lines, line)
	return nil
}

func (s *MemoryCartStore) UpdateLineQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity = quantity
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (s *MemoryCartStore) RemoveLine(ctx context.Context, cartID, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryCartStore) Clear(ctx context.Context, cartID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	hadLines := len(cart.Lines) > 0
	cart.Lines = []models.CartLine{}
	return hadLines, nil
}

func (s *MemoryCartStore) Snapshot(ctx context.Context, cartID string) (*models.CartSnapshot, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return &models.CartSnapshot{
		CartID: cart.ID,
		Lines:  cart.Lines,
		Total:  cart.Total(),
	}, nil
}

func copyCart(cart *models.Cart) *models.Cart {
	out := *cart
	out.Lines = make([]models.CartLine, len(cart.Lines))
	copy(out.Lines, cart.Lines)
	return &out
}

// MemoryOrderStore is the in-memory counterpart of PostgresOrderStore. It
// references the cart store so CreateFromCart can snapshot atomically,
// mirroring the single-transaction behavior of the SQL implementation.
type MemoryOrderStore struct {
	mu     sync.Mutex
	carts  *MemoryCartStore
	orders map[string]*models.Order
}

// NewMemoryOrderStore creates an in-memory order store over a cart store.
func NewMemoryOrderStore(carts *MemoryCartStore) *MemoryOrderStore {
	return &MemoryOrderStore{
		carts:  carts,
		orders: make(map[string]*models.Order),
	}
}

func (s *MemoryOrderStore) CreateFromCart(ctx context.Context, cartID, customerID string) (*models.Order, error) {
	snap, err := s.carts.Snapshot(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(snap.Lines) == 0 {
		return nil, apperrors.NewValidationError("cart_id", "cart is empty")
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:         newOrderID(),
		CustomerID: customerID,
		Status:     models.OrderStatusPending,
		Lines:      make([]models.OrderLine, len(snap.Lines)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i, l := range snap.Lines {
		order.Lines[i] = models.OrderLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal(),
		}
	}
	order.Total = order.SumLines()

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()
	return copyOrder(order), nil
}

func (s *MemoryOrderStore) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyOrder(order), nil
}

func (s *MemoryOrderStore) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*models.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			matched = append(matched, copyOrder(order))
		}
	}
	total := len(matched)

	if offset >= len(matched) {
		return []*models.Order{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *MemoryOrderStore) UpdateStatusFromPending(ctx context.Context, orderID string, status models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryOrderStore) Delete(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.orders, orderID)
	return nil
}

func copyOrder(order *models.Order) *models.Order {
	out := *order
	out.Lines = make([]models.OrderLine, len(order.Lines))
	copy(out.Lines, order.Lines)
	return &out
}
