package basket

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

// Service mutates and reads the per-user cart and wishlist.
type Service struct {
	repo     basketRepo
	resolver resolver
	users    userRepo
	logger   *zap.Logger
}

type basketRepo interface {
	List(ctx context.Context, userID string, basket domain.BasketType) ([]domain.BasketEntry, error)
	Add(ctx context.Context, userID string, basket domain.BasketType, ref domain.CatalogRef) error
	Remove(ctx context.Context, userID string, basket domain.BasketType, ref domain.CatalogRef) error
	Clear(ctx context.Context, userID string, basket domain.BasketType) (int64, error)
}

type resolver interface {
	Resolve(ctx context.Context, ref domain.CatalogRef) (*domain.CatalogItem, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

func New(repo basketRepo, resolver resolver, users userRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, users: users, logger: logging.OrNop(logger)}
}

func parseRef(itemID, kind string) (domain.CatalogRef, error) {
	k, err := domain.ParseKind(kind)
	if err != nil {
		return domain.CatalogRef{}, err
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.CatalogRef{}, domain.Validationf("item id required")
	}
	return domain.CatalogRef{Kind: k, ID: id}, nil
}

// AddItem puts the referenced item into the basket. Repeating the call on a cart
// increments the quantity; on a wishlist it changes nothing.
func (s *Service) AddItem(ctx context.Context, userID string, basket domain.BasketType, itemID, kind string) (*domain.Basket, error) {
	ref, err := parseRef(itemID, kind)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Resolve(ctx, ref); err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, userID, basket, ref); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, basket)
}

// RemoveItem drops the entry matching both id and kind, or returns ErrNotFound.
func (s *Service) RemoveItem(ctx context.Context, userID string, basket domain.BasketType, itemID, kind string) (*domain.Basket, error) {
	ref, err := parseRef(itemID, kind)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Remove(ctx, userID, basket, ref); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, basket)
}

// Get returns the basket with every entry joined against its catalog. Orphaned
// references are kept and flagged Missing.
func (s *Service) Get(ctx context.Context, userID string, basket domain.BasketType) (*domain.Basket, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx, userID, basket)
	if err != nil {
		return nil, err
	}
	out := &domain.Basket{UserID: userID, Type: basket, Entries: make([]domain.ResolvedEntry, 0, len(entries))}
	for _, e := range entries {
		re := domain.ResolvedEntry{ItemID: e.Ref.ID, Kind: e.Ref.Kind, AddedAt: e.AddedAt}
		if basket == domain.BasketCart {
			re.Quantity = e.Quantity
		}
		item, err := s.resolver.Resolve(ctx, e.Ref)
		switch {
		case err == nil:
			re.Item = item
		case errors.Is(err, domain.ErrNotFound):
			re.Missing = true
		default:
			return nil, err
		}
		out.Entries = append(out.Entries, re)
	}
	return out, nil
}

func (s *Service) Clear(ctx context.Context, userID string, basket domain.BasketType) error {
	n, err := s.repo.Clear(ctx, userID, basket)
	if err != nil {
		return err
	}
	s.logger.Debug("basket cleared", zap.String("user_id", userID), zap.String("basket", string(basket)), zap.Int64("entries", n))
	return nil
}
