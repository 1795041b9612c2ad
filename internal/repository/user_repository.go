package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository registers chat users on first contact.
type UserRepository interface {
	Upsert(ctx context.Context, chatID int64) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// Upsert inserts the user if unseen; repeated calls for the same chat id
// are no-ops.
func (r *userRepository) Upsert(ctx context.Context, chatID int64) error {
	const query = `
        INSERT INTO users (tg_id) VALUES ($1)
        ON CONFLICT (tg_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, chatID)
	return err
}
