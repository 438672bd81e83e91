package service

import (
	"context"
	"fmt"

	"modelviewer/internal/models"
	"modelviewer/internal/repository"
)

// AssetStore persists uploaded file records.
type AssetStore interface {
	Create(ctx context.Context, asset models.Asset) error
	GetByID(ctx context.Context, id string) (models.Asset, error)
}

// URLBuilder maps a stored object onto its public URL.
type URLBuilder interface {
	PublicURL(bucket, objectKey string) string
}

type AssetService struct {
	assets AssetStore
	urls   URLBuilder
}

func NewAssetService(assets AssetStore, urls URLBuilder) *AssetService {
	return &AssetService{assets: assets, urls: urls}
}

// AssetURL resolves a stored asset reference. Rejected assets are reported as
// missing.
func (s *AssetService) AssetURL(ctx context.Context, ref string) (string, error) {
	asset, err := s.assets.GetByID(ctx, ref)
	if err != nil {
		return "", err
	}
	if asset.Status == models.AssetStatusRejected {
		return "", fmt.Errorf("%w: %s was rejected", repository.ErrAssetNotFound, ref)
	}
	return s.urls.PublicURL(asset.Bucket, asset.ObjectKey), nil
}
