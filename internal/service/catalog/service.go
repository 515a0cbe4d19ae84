package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	catalogrepo "storefront/internal/repository/catalog"
)

// Service serves both catalogs: browsing, admin inventory, reviews and stock adjustment.
type Service struct {
	*Resolver
	stockAttempts int
	logger        *zap.Logger
	now           func() time.Time
}

func New(products, accessories catalogrepo.Repository, stockAttempts int, logger *zap.Logger) *Service {
	if stockAttempts < 1 {
		stockAttempts = 1
	}
	return &Service{
		Resolver:      NewResolver(products, accessories),
		stockAttempts: stockAttempts,
		logger:        logging.OrNop(logger),
		now:           time.Now,
	}
}

// UpsertInput is the admin inventory payload.
type UpsertInput struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Price          decimal.Decimal        `json:"price"`
	Category       string                 `json:"category"`
	Brand          string                 `json:"brand"`
	Stock          int                    `json:"stock"`
	IsOffer        bool                   `json:"isOffer"`
	IsBestSeller   bool                   `json:"isBestSeller"`
	ImageURL       string                 `json:"imageUrl"`
	Specifications map[string]interface{} `json:"specifications"`
	CompatibleWith []string               `json:"compatibleWith"`
}

type ReviewInput struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

func (s *Service) List(ctx context.Context, kind domain.Kind, filter domain.CatalogFilter) ([]domain.CatalogItem, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	items, err := repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, kind domain.Kind, id string) (*domain.CatalogItem, error) {
	return s.Resolve(ctx, domain.CatalogRef{Kind: kind, ID: id})
}

func (s *Service) Upsert(ctx context.Context, kind domain.Kind, in UpsertInput) (*domain.CatalogItem, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name required")
	}
	if in.Stock < 0 {
		return nil, domain.Validationf("stock must not be negative")
	}
	item := domain.CatalogItem{
		ID:           strings.TrimSpace(in.ID),
		Kind:         kind,
		Name:         name,
		Description:  in.Description,
		Price:        in.Price,
		Category:     strings.TrimSpace(in.Category),
		Brand:        strings.TrimSpace(in.Brand),
		Stock:        in.Stock,
		IsOffer:      in.IsOffer,
		IsBestSeller: in.IsBestSeller,
		ImageURL:     in.ImageURL,
	}
	if kind == domain.KindProduct {
		item.Specifications = in.Specifications
	} else {
		item.CompatibleWith = in.CompatibleWith
	}
	return repo.Upsert(ctx, item)
}

// SetStock overwrites the stock level, retrying when a concurrent writer bumps the version.
func (s *Service) SetStock(ctx context.Context, kind domain.Kind, id string, stock int) (*domain.CatalogItem, error) {
	if stock < 0 {
		return nil, domain.Validationf("stock must not be negative")
	}
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		updated, err := repo.UpdateStock(ctx, id, stock, current.Version)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= s.stockAttempts {
			return nil, err
		}
	}
}

// AdjustStock applies delta to item's stock with compare-and-swap on the version,
// re-reading and retrying on conflict. The result is not clamped at zero.
func (s *Service) AdjustStock(ctx context.Context, item domain.CatalogItem, delta int) (*domain.CatalogItem, error) {
	repo, err := s.repo(item.Kind)
	if err != nil {
		return nil, err
	}
	current := item
	for attempt := 1; ; attempt++ {
		updated, err := repo.UpdateStock(ctx, current.ID, current.Stock+delta, current.Version)
		if err == nil {
			if updated.Stock < 0 {
				s.logger.Warn("stock went negative",
					zap.String("kind", string(updated.Kind)),
					zap.String("item_id", updated.ID),
					zap.Int("stock", updated.Stock))
			}
			return updated, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		if attempt >= s.stockAttempts {
			return nil, fmt.Errorf("adjust stock %s %s after %d attempts: %w", item.Kind, item.ID, attempt, err)
		}
		s.logger.Debug("stock version conflict, retrying", zap.String("item_id", item.ID), zap.Int("attempt", attempt))
		fresh, err := repo.GetByID(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		current = *fresh
	}
}

func (s *Service) AddReview(ctx context.Context, kind domain.Kind, id, userID string, in ReviewInput) (*domain.CatalogItem, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	if err := validateScore(in.Value); err != nil {
		return nil, err
	}
	review := domain.Review{User: userID, Value: in.Value, Text: strings.TrimSpace(in.Text), CreatedAt: s.now().UTC()}
	if err := repo.AppendReview(ctx, id, review); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

// AddRating records userID's rating, replacing any earlier one.
func (s *Service) AddRating(ctx context.Context, kind domain.Kind, id, userID string, value int) (*domain.CatalogItem, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	if err := validateScore(value); err != nil {
		return nil, err
	}
	if err := repo.PutRating(ctx, id, domain.Rating{User: userID, Value: value}); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

func validateScore(v int) error {
	if v < 1 || v > 5 {
		return domain.Validationf("value must be between 1 and 5")
	}
	return nil
}
