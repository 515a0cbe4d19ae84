package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Update carries the mutable order fields. Nil fields are left unchanged.
type Update struct {
	Status       *domain.OrderStatus
	DeliveryDate *time.Time
}

type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// ListByStatusBetween returns orders in status whose ordered_at lies in [from, to].
	ListByStatusBetween(ctx context.Context, status domain.OrderStatus, from, to time.Time) ([]domain.Order, error)
	// Update applies upd only while the order is still in expected status and returns
	// domain.ErrVersionConflict otherwise.
	Update(ctx context.Context, id string, expected domain.OrderStatus, upd Update) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}
