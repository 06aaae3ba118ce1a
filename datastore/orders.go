package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/furtivegod/becomeyou/models"
	"github.com/lib/pq"
)

// ErrDuplicateOrder signals a unique-constraint hit on provider_ref.
// The webhook intake recovers from it by fetching the existing row,
// which makes duplicate webhook deliveries safe at the order level.
var ErrDuplicateOrder = errors.New("order already exists for provider reference")

const pqUniqueViolation = "23505"

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, provider_ref, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.ProviderRef, string(order.Status), order.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.ProviderRef)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByProviderRef(ctx context.Context, providerRef string) (*models.Order, error) {
	query := `
		SELECT id, user_id, provider_ref, status, created_at
		FROM orders
		WHERE provider_ref = $1
	`
	var order models.Order
	var statusStr string
	row := r.db.QueryRowContext(ctx, query, providerRef)
	err := row.Scan(&order.ID, &order.UserID, &order.ProviderRef, &statusStr, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get order by provider ref: %w", err)
	}
	order.Status = models.OrderStatus(statusStr)
	return &order, nil
}
