package service

import (
	"context"

	"github.com/spec-kit/storefront-bot/internal/domain"
	"github.com/spec-kit/storefront-bot/internal/repository"
)

// CatalogService exposes read-only catalog browsing. Empty categories
// are rendered as "no items", not errors.
type CatalogService struct {
	catalog repository.CatalogRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(catalog repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.catalog.GetCategory(ctx, id)
}

func (s *CatalogService) ListItems(ctx context.Context, categoryID int64) ([]domain.Item, error) {
	return s.catalog.ListItems(ctx, categoryID)
}

func (s *CatalogService) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return s.catalog.GetItem(ctx, id)
}
