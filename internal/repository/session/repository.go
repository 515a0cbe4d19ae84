package session

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Repository stores session tokens issued by the external identity provider.
type Repository interface {
	Create(ctx context.Context, token, userID string, expiresAt time.Time) error
	// Get returns the session joined with its user's email and role.
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}
