package catalog

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists one catalog. Products and accessories each get their own instance.
type Repository interface {
	Kind() domain.Kind
	List(ctx context.Context, filter domain.CatalogFilter) ([]domain.CatalogItem, error)
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	FindByName(ctx context.Context, name string) ([]domain.CatalogItem, error)
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
	// UpdateStock writes stock only if the row still has expectedVersion.
	UpdateStock(ctx context.Context, id string, stock, expectedVersion int) (*domain.CatalogItem, error)
	AppendReview(ctx context.Context, id string, review domain.Review) error
	PutRating(ctx context.Context, id string, rating domain.Rating) error
}
