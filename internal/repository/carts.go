package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// Postgres error codes we branch on.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresCartStore persists carts and their lines. A (cart_id, product_id)
// primary key on cart_lines enforces the one-line-per-product invariant at
// the storage layer; the quantity CHECK enforces the floor.
type PostgresCartStore struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresCartStore creates a PostgreSQL cart store.
func NewPostgresCartStore(db *sql.DB, logger *logging.Logger) *PostgresCartStore {
	return &PostgresCartStore{db: db, logger: logger}
}

// Create allocates a new empty cart.
func (s *PostgresCartStore) Create(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{
		ID:        newCartID(),
		CreatedAt: time.Now().UTC(),
		Lines:     []models.CartLine{},
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carts (id, created_at) VALUES ($1, $2)`,
		cart.ID, cart.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to create cart", logging.Fields{"error": err.Error()})
		return nil, err
	}

	s.logger.Info("Cart created", logging.Fields{"cart_id": cart.ID})
	return cart, nil
}

// Get loads a cart with its lines. Returns apperrors.ErrNotFound when the
// cart does not exist.
func (s *PostgresCartStore) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM carts WHERE id = $1`,
		cartID,
	).Scan(&cart.ID, &cart.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cart.Lines, err = s.loadLines(ctx, s.db, cartID)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *PostgresCartStore) loadLines(ctx context.Context, q queryer, cartID string) ([]models.CartLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT product_id, product_name, unit_price_amount, currency, quantity
		 FROM cart_lines
		 WHERE cart_id = $1
		 ORDER BY product_id`,
		cartID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]models.CartLine, 0)
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice.Amount, &l.UnitPrice.Currency, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddLine inserts a new line. Returns apperrors.ErrConflict when the cart
// already has a line for the product (the line is rejected, not merged) and
// apperrors.ErrNotFound when the cart is missing.
func (s *PostgresCartStore) AddLine(ctx context.Context, cartID string, line models.CartLine) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_lines (cart_id, product_id, product_name, unit_price_amount, currency, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cartID, line.ProductID, line.ProductName, line.UnitPrice.Amount, line.UnitPrice.Currency, line.Quantity,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return apperrors.ErrConflict
		case pgForeignKeyViolation:
			return apperrors.ErrNotFound
		}
	}
	if err != nil {
		s.logger.Error("Failed to add cart line", logging.Fields{
			"cart_id":    cartID,
			"product_id": line.ProductID,
			"error":      err.Error(),
		})
		return err
	}

	s.logger.Info("Cart line added", logging.Fields{
		"cart_id":    cartID,
		"product_id": line.ProductID,
		"quantity":   line.Quantity,
	})
	return nil
}

// UpdateLineQuantity sets the quantity of an existing line. Returns
// apperrors.ErrNotFound when the cart has no line for the product.
func (s *PostgresCartStore) UpdateLineQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE cart_lines SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID, quantity,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RemoveLine deletes a line. Returns false when nothing was removed, which
// makes retried deletes a no-op. A missing cart is still ErrNotFound.
func (s *PostgresCartStore) RemoveLine(ctx context.Context, cartID, productID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cartID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, apperrors.ErrNotFound
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID,
	)
	if err != nil {
		return false, err
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// Clear removes all lines from a cart. The cart row itself stays so the
// customer can keep shopping with the same cart id.
func (s *PostgresCartStore) Clear(ctx context.Context, cartID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE cart_id = $1`, cartID,
	)
	if err != nil {
		return false, err
	}

	affected, _ := result.RowsAffected()
	s.logger.Info("Cart cleared", logging.Fields{
		"cart_id":       cartID,
		"lines_removed": affected,
	})
	return affected > 0, nil
}

// Snapshot returns an immutable priced copy of a cart.
func (s *PostgresCartStore) Snapshot(ctx context.Context, cartID string) (*models.CartSnapshot, error) {
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
