package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the two catalogs. Ids are only unique within one kind.
type Kind string

const (
	KindProduct   Kind = "Product"
	KindAccessory Kind = "Accessory"
)

// ParseKind accepts the canonical tag in any letter case.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "product":
		return KindProduct, nil
	case "accessory":
		return KindAccessory, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Valid() bool {
	return k == KindProduct || k == KindAccessory
}

// CatalogRef is a reference into exactly one catalog.
type CatalogRef struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

type Rating struct {
	User  string `json:"user"`
	Value int    `json:"value"`
}

type Review struct {
	User      string    `json:"user"`
	Value     int       `json:"value"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// CatalogItem is a row of either catalog. Specifications is only set for products,
// CompatibleWith only for accessories.
type CatalogItem struct {
	ID             string                 `json:"id"`
	Kind           Kind                   `json:"kind"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Price          decimal.Decimal        `json:"price"`
	Category       string                 `json:"category,omitempty"`
	Brand          string                 `json:"brand,omitempty"`
	Stock          int                    `json:"stock"`
	InStock        bool                   `json:"inStock"`
	IsOffer        bool                   `json:"isOffer"`
	IsBestSeller   bool                   `json:"isBestSeller"`
	ImageURL       string                 `json:"imageUrl,omitempty"`
	Ratings        []Rating               `json:"ratings"`
	Reviews        []Review               `json:"reviews"`
	Specifications map[string]interface{} `json:"specifications,omitempty"`
	CompatibleWith []string               `json:"compatibleWith,omitempty"`
	Version        int                    `json:"-"`
	CreatedAt      time.Time              `json:"createdAt"`
}

func (c CatalogItem) Ref() CatalogRef {
	return CatalogRef{Kind: c.Kind, ID: c.ID}
}

// CatalogFilter narrows catalog listings. Empty fields are ignored.
type CatalogFilter struct {
	Category   string
	Brand      string
	OfferOnly  bool
	BestSeller bool
}
