package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront-bot/internal/domain"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetWithItem(ctx context.Context, id int64) (*domain.Order, *domain.Item, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	Delete(ctx context.Context, id int64) error
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

// Create inserts the order and fills the store-generated id. Insert and id
// generation happen in one statement, so a returned id always corresponds
// to a persisted row.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (tg_id, fio, item_id, variant, price, category_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		order.RequesterChat,
		order.RequesterName,
		order.ItemID,
		order.Variant,
		order.Price,
		order.CategoryID,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt)
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	const query = `
        SELECT id, tg_id, fio, item_id, variant, price, category_id, status, created_at
        FROM orders WHERE id=$1`
	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.RequesterChat,
		&order.RequesterName,
		&order.ItemID,
		&order.Variant,
		&order.Price,
		&order.CategoryID,
		&order.Status,
		&order.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"id": id})
		}
		return nil, err
	}
	return &order, nil
}

// GetWithItem joins the order with its item for the admin detail view.
func (r *orderRepository) GetWithItem(ctx context.Context, id int64) (*domain.Order, *domain.Item, error) {
	const query = `
        SELECT o.id, o.tg_id, o.fio, o.item_id, o.variant, o.price, o.category_id, o.status, o.created_at,
               i.id, i.name, i.description, i.price, i.category_id
        FROM orders o
        JOIN items i ON i.id = o.item_id
        WHERE o.id=$1`
	var order domain.Order
	var item domain.Item
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.RequesterChat,
		&order.RequesterName,
		&order.ItemID,
		&order.Variant,
		&order.Price,
		&order.CategoryID,
		&order.Status,
		&order.CreatedAt,
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.CategoryID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("order", map[string]any{"id": id})
		}
		return nil, nil, err
	}
	return &order, &item, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	const query = `
        SELECT id, tg_id, fio, item_id, variant, price, category_id, status, created_at
        FROM orders ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	const query = `
        SELECT id, tg_id, fio, item_id, variant, price, category_id, status, created_at
        FROM orders WHERE status=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *orderRepository) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	const query = `UPDATE orders SET status=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("order", map[string]any{"id": id})
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM orders WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("order", map[string]any{"id": id})
	}
	return nil
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.RequesterChat,
			&order.RequesterName,
			&order.ItemID,
			&order.Variant,
			&order.Price,
			&order.CategoryID,
			&order.Status,
			&order.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}
