package analytics

import (
	"context"
	"strings"

	"storefront/internal/domain"
)

type nameFinder interface {
	FindByName(ctx context.Context, kind domain.Kind, name string) ([]domain.CatalogItem, error)
}

// matchLegacyLine re-types a line whose reference resolves nowhere by matching its
// snapshotted name against the accessory catalog. Among several same-named records
// the one with an equal price wins, then the oldest. Only historical orders need this;
// lines written today always carry a kind.
func matchLegacyLine(ctx context.Context, finder nameFinder, line domain.OrderLineItem) (*domain.CatalogItem, error) {
	name := strings.TrimSpace(line.Name)
	if name == "" {
		return nil, nil
	}
	candidates, err := finder.FindByName(ctx, domain.KindAccessory, name)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].Price.Equal(line.UnitPrice) {
			return &candidates[i], nil
		}
	}
	return &candidates[0], nil
}
