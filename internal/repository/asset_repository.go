package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"modelviewer/internal/models"
)

var ErrAssetNotFound = errors.New("asset not found")

type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

func (r *AssetRepository) Create(ctx context.Context, asset models.Asset) error {
	const query = `
		INSERT INTO assets (
			id, owner_id, bucket, object_key, filename, mime_type, extension, kind,
			size_bytes, checksum, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.OwnerID,
		asset.Bucket,
		asset.ObjectKey,
		asset.Filename,
		asset.MimeType,
		asset.Extension,
		asset.Kind,
		asset.SizeBytes,
		asset.Checksum,
		asset.Status,
	)
	return err
}

func (r *AssetRepository) GetByID(ctx context.Context, id string) (models.Asset, error) {
	const query = `
		SELECT id, owner_id, bucket, object_key, filename, mime_type, extension, kind,
		       size_bytes, checksum, status, created_at, updated_at
		FROM assets WHERE id = $1
	`

	var asset models.Asset
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&asset.ID,
		&asset.OwnerID,
		&asset.Bucket,
		&asset.ObjectKey,
		&asset.Filename,
		&asset.MimeType,
		&asset.Extension,
		&asset.Kind,
		&asset.SizeBytes,
		&asset.Checksum,
		&asset.Status,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Asset{}, ErrAssetNotFound
		}
		return models.Asset{}, err
	}
	return asset, nil
}

func (r *AssetRepository) UpdateStatus(ctx context.Context, id string, status models.AssetStatus) error {
	const query = `
		UPDATE assets SET status = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// ListStale returns assets that stayed processing or rejected since before cutoff.
func (r *AssetRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Asset, error) {
	const query = `
		SELECT id, owner_id, bucket, object_key, filename, mime_type, extension, kind,
		       size_bytes, checksum, status, created_at, updated_at
		FROM assets
		WHERE status IN ('processing', 'rejected') AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var asset models.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.OwnerID,
			&asset.Bucket,
			&asset.ObjectKey,
			&asset.Filename,
			&asset.MimeType,
			&asset.Extension,
			&asset.Kind,
			&asset.SizeBytes,
			&asset.Checksum,
			&asset.Status,
			&asset.CreatedAt,
			&asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assets WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
