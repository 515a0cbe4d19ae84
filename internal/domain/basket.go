package domain

import "time"

// BasketType selects the per-user basket.
type BasketType string

const (
	BasketCart     BasketType = "cart"
	BasketWishlist BasketType = "wishlist"
)

// BasketEntry is one (item reference, quantity) pair. Quantity is always 1 for wishlists.
type BasketEntry struct {
	Ref      CatalogRef `json:"ref"`
	Quantity int        `json:"quantity"`
	AddedAt  time.Time  `json:"addedAt"`
}

// ResolvedEntry is a basket entry joined against its catalog. Item is nil when the
// reference is orphaned; callers fall back to ItemID/Kind.
type ResolvedEntry struct {
	ItemID   string       `json:"itemId"`
	Kind     Kind         `json:"kind"`
	Quantity int          `json:"quantity,omitempty"`
	AddedAt  time.Time    `json:"addedAt"`
	Item     *CatalogItem `json:"item,omitempty"`
	Missing  bool         `json:"missing,omitempty"`
}

type Basket struct {
	UserID  string          `json:"userId"`
	Type    BasketType      `json:"type"`
	Entries []ResolvedEntry `json:"items"`
}
