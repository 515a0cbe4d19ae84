package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesRow struct {
	ItemID       string          `json:"itemId"`
	Kind         Kind            `json:"kind"`
	Name         string          `json:"name,omitempty"`
	Category     string          `json:"category,omitempty"`
	Brand        string          `json:"brand,omitempty"`
	TotalSold    int             `json:"totalSold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// SalesReport rows are sorted by TotalRevenue descending. HighestSale and LowestSale
// are nil when Items is empty.
type SalesReport struct {
	Kind         Kind            `json:"kind"`
	Range        string          `json:"range"`
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Items        []SalesRow      `json:"items"`
	HighestSale  *SalesRow       `json:"highestSale"`
	LowestSale   *SalesRow       `json:"lowestSale"`
	TotalSold    int             `json:"totalSold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}
