package basket

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores per-user cart and wishlist entries keyed by (user, basket, item ref).
type Repository interface {
	List(ctx context.Context, userID string, basket domain.BasketType) ([]domain.BasketEntry, error)
	// Add inserts the entry. An existing cart entry has its quantity incremented by one;
	// an existing wishlist entry is left untouched.
	Add(ctx context.Context, userID string, basket domain.BasketType, ref domain.CatalogRef) error
	Remove(ctx context.Context, userID string, basket domain.BasketType, ref domain.CatalogRef) error
	Clear(ctx context.Context, userID string, basket domain.BasketType) (int64, error)
}
