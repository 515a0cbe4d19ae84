package catalog

import (
	"context"
	"errors"

	"storefront/internal/domain"
	catalogrepo "storefront/internal/repository/catalog"
)

// Resolver maps catalog references to records. It is the only place that knows which
// repository serves which kind.
type Resolver struct {
	repos map[domain.Kind]catalogrepo.Repository
}

func NewResolver(products, accessories catalogrepo.Repository) *Resolver {
	return &Resolver{repos: map[domain.Kind]catalogrepo.Repository{
		domain.KindProduct:   products,
		domain.KindAccessory: accessories,
	}}
}

func (r *Resolver) repo(kind domain.Kind) (catalogrepo.Repository, error) {
	repo, ok := r.repos[kind]
	if !ok || repo == nil {
		return nil, domain.ErrInvalidKind
	}
	return repo, nil
}

// Resolve looks ref up in its declared catalog.
func (r *Resolver) Resolve(ctx context.Context, ref domain.CatalogRef) (*domain.CatalogItem, error) {
	repo, err := r.repo(ref.Kind)
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, ref.ID)
}

// Probe finds an untagged id, trying products before accessories.
func (r *Resolver) Probe(ctx context.Context, id string) (*domain.CatalogItem, error) {
	for _, kind := range []domain.Kind{domain.KindProduct, domain.KindAccessory} {
		item, err := r.Resolve(ctx, domain.CatalogRef{Kind: kind, ID: id})
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrNotFound
}

// ProbeBoth looks id up in both catalogs. Either result may be nil; only lookup
// failures other than not-found are returned as errors.
func (r *Resolver) ProbeBoth(ctx context.Context, id string) (product, accessory *domain.CatalogItem, err error) {
	product, err = r.Resolve(ctx, domain.CatalogRef{Kind: domain.KindProduct, ID: id})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	accessory, err = r.Resolve(ctx, domain.CatalogRef{Kind: domain.KindAccessory, ID: id})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	return product, accessory, nil
}

// FindByName returns the records of kind whose name matches exactly, oldest first.
func (r *Resolver) FindByName(ctx context.Context, kind domain.Kind, name string) ([]domain.CatalogItem, error) {
	repo, err := r.repo(kind)
	if err != nil {
		return nil, err
	}
	return repo.FindByName(ctx, name)
}
