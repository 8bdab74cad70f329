package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// PostgresOrderStore persists immutable order aggregates. Orders and their
// lines are always written in one transaction; a reader can never observe
// an order without its lines.
type PostgresOrderStore struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresOrderStore creates a PostgreSQL order store.
func NewPostgresOrderStore(db *sql.DB, logger *logging.Logger) *PostgresOrderStore {
	return &PostgresOrderStore{db: db, logger: logger}
}

// CreateFromCart converts a cart into a pending order inside a single
// transaction. The cart row is locked FOR UPDATE for the duration of the
// snapshot read and the order insert, so a concurrent cart mutation cannot
// be lost or double-counted; the lock is released at commit, before any
// gateway call. Returns apperrors.ErrNotFound for a missing cart and a
// ValidationError for an empty one; an order with zero lines is never
// persisted.
func (s *PostgresOrderStore) CreateFromCart(ctx context.Context, cartID, customerID string) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var lockedID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID,
	).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, product_name, unit_price_amount, currency, quantity
		 FROM cart_lines
		 WHERE cart_id = $1
		 ORDER BY product_id`,
		cartID,
	)
	if err != nil {
		return nil, err
	}

	var lines []models.OrderLine
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice.Amount, &l.UnitPrice.Currency, &l.Quantity); err != nil {
			rows.Close()
			return nil, err
		}
		l.LineTotal = l.UnitPrice.Mul(l.Quantity)
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("cart_id", "cart is empty")
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:         newOrderID(),
		CustomerID: customerID,
		Status:     models.OrderStatusPending,
		Lines:      lines,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	order.Total = order.SumLines()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, status, total_amount, currency, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, order.CustomerID, order.Status, order.Total.Amount, order.Total.Currency,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, l := range order.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, product_id, product_name, unit_price_amount, currency, quantity, line_total_amount)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			order.ID, l.ProductID, l.ProductName, l.UnitPrice.Amount, l.UnitPrice.Currency, l.Quantity, l.LineTotal.Amount,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("Order created from cart", logging.Fields{
		"order_id":    order.ID,
		"cart_id":     cartID,
		"customer_id": customerID,
		"total":       order.Total.Amount,
		"line_count":  len(order.Lines),
	})
	return order, nil
}

// GetByID loads an order with its lines. Returns apperrors.ErrNotFound
// when the order does not exist.
func (s *PostgresOrderStore) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, status, total_amount, currency, created_at, updated_at
		 FROM orders WHERE id = $1`,
		orderID,
	).Scan(&order.ID, &order.CustomerID, &order.Status, &order.Total.Amount, &order.Total.Currency,
		&order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	order.Lines, err = s.loadLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *PostgresOrderStore) loadLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, product_name, unit_price_amount, currency, quantity, line_total_amount
		 FROM order_lines
		 WHERE order_id = $1
		 ORDER BY product_id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice.Amount, &l.UnitPrice.Currency, &l.Quantity, &l.LineTotal.Amount); err != nil {
			return nil, err
		}
		l.LineTotal.Currency = l.UnitPrice.Currency
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListByCustomer returns a customer's orders, newest first.
func (s *PostgresOrderStore) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*models.Order, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, status, total_amount, currency, created_at, updated_at
		 FROM orders
		 WHERE customer_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		customerID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.Status, &order.Total.Amount, &order.Total.Currency,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, order := range orders {
		order.Lines, err = s.loadLines(ctx, order.ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// UpdateStatusFromPending transitions an order out of pending with a
// compare-and-set on the status column. Returns (false, nil) when the
// order exists but is already terminal, so duplicate and out-of-order
// events fall through without side effects. Returns apperrors.ErrNotFound
// when there is no such order.
func (s *PostgresOrderStore) UpdateStatusFromPending(ctx context.Context, orderID string, status models.OrderStatus) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		orderID, status, time.Now().UTC(), models.OrderStatusPending,
	)
	if err != nil {
		return false, err
	}

	affected, _ := result.RowsAffected()
	if affected > 0 {
		s.logger.Info("Order status updated", logging.Fields{
			"order_id":   orderID,
			"new_status": status,
		})
		return true, nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, apperrors.ErrNotFound
	}
	return false, nil
}

// Delete removes an order and its lines. This is the compensating rollback
// for a failed session request, which is why it is a hard delete: a rolled
// back order must leave no trace for the webhook path to find.
func (s *PostgresOrderStore) Delete(ctx context.Context, orderID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1`, orderID,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	s.logger.Info("Order deleted", logging.Fields{"order_id": orderID})
	return nil
}
