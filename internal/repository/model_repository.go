package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"modelviewer/internal/models"
)

var ErrModelNotFound = errors.New("model not found")

// ModelRepository stores model items and their named meta fields.
type ModelRepository struct {
	pool *pgxpool.Pool
}

func NewModelRepository(pool *pgxpool.Pool) *ModelRepository {
	return &ModelRepository{pool: pool}
}

func (r *ModelRepository) Create(ctx context.Context, item models.ModelItem) (models.ModelItem, error) {
	const query = `
		INSERT INTO model_items (kind, title, author_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if item.Kind == "" {
		item.Kind = models.KindModel
	}
	if item.Status == "" {
		item.Status = models.ItemStatusDraft
	}
	row := r.pool.QueryRow(ctx, query, item.Kind, item.Title, item.AuthorID, item.Status)
	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return models.ModelItem{}, err
	}
	return item, nil
}

func (r *ModelRepository) GetItem(ctx context.Context, id int64) (models.ModelItem, error) {
	const query = `
		SELECT id, kind, title, author_id, status, created_at, updated_at
		FROM model_items WHERE id = $1
	`

	var item models.ModelItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Kind,
		&item.Title,
		&item.AuthorID,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ModelItem{}, ErrModelNotFound
		}
		return models.ModelItem{}, err
	}
	return item, nil
}

func (r *ModelRepository) GetMeta(ctx context.Context, id int64) (map[string]string, error) {
	const query = `SELECT meta_key, meta_value FROM model_meta WHERE item_id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

// SaveMeta upserts every field of meta and touches the item in one transaction.
func (r *ModelRepository) SaveMeta(ctx context.Context, id int64, title *string, meta map[string]string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const touch = `
		UPDATE model_items
		SET title = COALESCE($2, title), updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := tx.Exec(ctx, touch, id, title)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrModelNotFound
	}

	const upsert = `
		INSERT INTO model_meta (item_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, meta_key)
		DO UPDATE SET meta_value = EXCLUDED.meta_value
	`
	batch := &pgx.Batch{}
	for key, value := range meta {
		batch.Queue(upsert, id, key, value)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert meta: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *ModelRepository) List(ctx context.Context, authorID string, limit, offset int) ([]models.ModelItem, error) {
	const query = `
		SELECT id, kind, title, author_id, status, created_at, updated_at
		FROM model_items
		WHERE kind = $1 AND ($2 = '' OR author_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, models.KindModel, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ModelItem
	for rows.Next() {
		var item models.ModelItem
		if err := rows.Scan(
			&item.ID,
			&item.Kind,
			&item.Title,
			&item.AuthorID,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes the item and, through the foreign key, its meta. Referenced
// assets are left in place.
func (r *ModelRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM model_items WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrModelNotFound
	}
	return nil
}

// IsAssetReferenced reports whether any item points at the asset through one
// of its file fields.
func (r *ModelRepository) IsAssetReferenced(ctx context.Context, assetID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM model_meta
			WHERE meta_key IN ($2, $3, $4) AND meta_value = $1
		)
	`

	var referenced bool
	if err := r.pool.QueryRow(ctx, query, assetID, models.MetaModelFile, models.MetaIOSFile, models.MetaPosterImage).Scan(&referenced); err != nil {
		return false, fmt.Errorf("asset references %s: %w", assetID, err)
	}
	return referenced, nil
}
