package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusProcessing     OrderStatus = "Processing"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

var forwardRank = map[OrderStatus]int{
	StatusProcessing:     0,
	StatusShipped:        1,
	StatusOutForDelivery: 2,
	StatusDelivered:      3,
}

func (s OrderStatus) Valid() bool {
	_, ok := forwardRank[s]
	return ok || s == StatusCancelled
}

// ParseOrderStatus matches a status label ignoring case and surrounding space.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range []OrderStatus{StatusProcessing, StatusShipped, StatusOutForDelivery, StatusDelivered, StatusCancelled} {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", Validationf("unknown status %q", raw)
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CheckTransition reports whether an order in status from may move to status to.
// Forward moves may skip steps; setting the current non-terminal status again is a no-op.
func CheckTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return Validationf("unknown status %q", to)
	}
	switch from {
	case StatusCancelled:
		if to == StatusCancelled {
			return ErrAlreadyCancelled
		}
		return ErrInvalidTransition
	case StatusDelivered:
		return ErrInvalidTransition
	}
	if to == StatusCancelled {
		return nil
	}
	if forwardRank[to] < forwardRank[from] {
		return ErrInvalidTransition
	}
	return nil
}

// OrderLineItem is a snapshot taken at placement time. Kind may be empty on orders
// written before the tag was always recorded.
type OrderLineItem struct {
	ItemID    string          `json:"itemId"`
	Kind      Kind            `json:"kind,omitempty"`
	Name      string          `json:"name,omitempty"`
	Category  string          `json:"category,omitempty"`
	Brand     string          `json:"brand,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (l OrderLineItem) Extended() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Address struct {
	Name       string `json:"name,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// PaymentInfo is opaque gateway metadata stored with the order.
type PaymentInfo struct {
	Method    string `json:"method,omitempty"`
	IntentID  string `json:"intentId,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	Signature string `json:"signature,omitempty"`
	Status    string `json:"status,omitempty"`
}

type Order struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Email        string          `json:"email"`
	OrderedAt    time.Time       `json:"orderedAt"`
	Items        []OrderLineItem `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Status       OrderStatus     `json:"status"`
	DeliveryDate *time.Time      `json:"deliveryDate,omitempty"`
	Address      Address         `json:"address"`
	Payment      PaymentInfo     `json:"paymentInfo"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// LineTotal sums the extended line prices; Total is not guaranteed to match it.
func (o Order) LineTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Items {
		sum = sum.Add(l.Extended())
	}
	return sum
}
