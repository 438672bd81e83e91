package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOptionNotFound = errors.New("option not found")

// OptionRepository stores named JSON option records.
type OptionRepository struct {
	pool *pgxpool.Pool
}

func NewOptionRepository(pool *pgxpool.Pool) *OptionRepository {
	return &OptionRepository{pool: pool}
}

func (r *OptionRepository) Get(ctx context.Context, name string) ([]byte, error) {
	const query = `SELECT value FROM options WHERE name = $1`

	var value []byte
	if err := r.pool.QueryRow(ctx, query, name).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOptionNotFound
		}
		return nil, err
	}
	return value, nil
}

// Put replaces the whole record; concurrent writers resolve last write wins.
func (r *OptionRepository) Put(ctx context.Context, name string, value []byte) error {
	const query = `
		INSERT INTO options (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, name, value)
	return err
}

func (r *OptionRepository) Delete(ctx context.Context, name string) error {
	const query = `DELETE FROM options WHERE name = $1`
	_, err := r.pool.Exec(ctx, query, name)
	return err
}
