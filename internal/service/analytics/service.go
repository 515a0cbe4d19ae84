// Package analytics rebuilds per-item sales totals from delivered orders.
package analytics

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type orderSource interface {
	ListByStatusBetween(ctx context.Context, status domain.OrderStatus, from, to time.Time) ([]domain.Order, error)
}

type catalogLookup interface {
	nameFinder
	Resolve(ctx context.Context, ref domain.CatalogRef) (*domain.CatalogItem, error)
	ProbeBoth(ctx context.Context, id string) (product, accessory *domain.CatalogItem, err error)
}

type Service struct {
	orders  orderSource
	catalog catalogLookup
	logger  *zap.Logger
	now     func() time.Time
}

func New(orders orderSource, catalog catalogLookup, logger *zap.Logger) *Service {
	return &Service{orders: orders, catalog: catalog, logger: logging.OrNop(logger), now: time.Now}
}

type Query struct {
	Kind     string
	Category string
	Brand    string
	Range    string
}

// windowStart maps a range name to the start of the reporting window. Unknown names
// cover all history.
func windowStart(now time.Time, rng string) time.Time {
	switch strings.ToLower(strings.TrimSpace(rng)) {
	case "day":
		return now.AddDate(0, 0, -1)
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	default:
		return time.Unix(0, 0).UTC()
	}
}

// Sales aggregates delivered order lines of the requested kind inside the window.
// Any lookup failure aborts the report.
func (s *Service) Sales(ctx context.Context, q Query) (*domain.SalesReport, error) {
	kind, err := domain.ParseKind(q.Kind)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	from := windowStart(now, q.Range)
	orders, err := s.orders.ListByStatusBetween(ctx, domain.StatusDelivered, from, now)
	if err != nil {
		return nil, err
	}

	rows := map[string]*domain.SalesRow{}
	for _, o := range orders {
		for _, line := range o.Items {
			row, ok, err := s.classify(ctx, line)
			if err != nil {
				s.logger.Error("sales analytics: resolve failed",
					zap.String("order_id", o.ID), zap.String("item_id", line.ItemID), zap.Error(err))
				return nil, err
			}
			if !ok || row.Kind != kind {
				continue
			}
			if q.Category != "" && !strings.EqualFold(row.Category, q.Category) {
				continue
			}
			if q.Brand != "" && !strings.EqualFold(row.Brand, q.Brand) {
				continue
			}
			acc, seen := rows[row.ItemID]
			if !seen {
				acc = &row
				acc.TotalRevenue = decimal.Zero
				rows[row.ItemID] = acc
			}
			acc.TotalSold += line.Quantity
			acc.TotalRevenue = acc.TotalRevenue.Add(line.Extended())
		}
	}

	report := &domain.SalesReport{
		Kind:         kind,
		Range:        q.Range,
		From:         from,
		To:           now,
		Items:        make([]domain.SalesRow, 0, len(rows)),
		TotalRevenue: decimal.Zero,
	}
	for _, r := range rows {
		report.Items = append(report.Items, *r)
		report.TotalSold += r.TotalSold
		report.TotalRevenue = report.TotalRevenue.Add(r.TotalRevenue)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		a, b := report.Items[i], report.Items[j]
		if c := a.TotalRevenue.Cmp(b.TotalRevenue); c != 0 {
			return c > 0
		}
		return a.ItemID < b.ItemID
	})
	if n := len(report.Items); n > 0 {
		highest, lowest := report.Items[0], report.Items[n-1]
		report.HighestSale = &highest
		report.LowestSale = &lowest
	}
	return report, nil
}

// classify resolves a line to a kind and display data. ok is false when the line
// cannot be attributed to either catalog.
func (s *Service) classify(ctx context.Context, line domain.OrderLineItem) (domain.SalesRow, bool, error) {
	item, err := s.resolveLine(ctx, line)
	if err != nil {
		return domain.SalesRow{}, false, err
	}
	row := domain.SalesRow{
		ItemID:   line.ItemID,
		Kind:     line.Kind,
		Name:     line.Name,
		Category: line.Category,
		Brand:    line.Brand,
	}
	if item == nil {
		return row, line.Kind.Valid(), nil
	}
	row.ItemID = item.ID
	row.Kind = item.Kind
	if item.Name != "" {
		row.Name = item.Name
	}
	if item.Category != "" {
		row.Category = item.Category
	}
	if item.Brand != "" {
		row.Brand = item.Brand
	}
	return row, true, nil
}

func (s *Service) resolveLine(ctx context.Context, line domain.OrderLineItem) (*domain.CatalogItem, error) {
	if line.Kind.Valid() {
		item, err := s.catalog.Resolve(ctx, domain.CatalogRef{Kind: line.Kind, ID: line.ItemID})
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if line.ItemID != "" {
		product, accessory, err := s.catalog.ProbeBoth(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if accessory != nil {
			return accessory, nil
		}
		if product != nil {
			return product, nil
		}
	}
	return matchLegacyLine(ctx, s.catalog, line)
}
