package order

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// PaymentGate verifies the client's payment metadata before anything is written.
// Returning an error rejects the order.
type PaymentGate interface {
	Authorize(ctx context.Context, sess domain.Session, total decimal.Decimal, info domain.PaymentInfo) error
}

// AcceptAll is the gate used when no gateway is configured.
type AcceptAll struct{}

func (AcceptAll) Authorize(context.Context, domain.Session, decimal.Decimal, domain.PaymentInfo) error {
	return nil
}

// Notifier is told about every stored order. Calls run detached from the request.
type Notifier interface {
	OrderPlaced(ctx context.Context, o domain.Order) error
}
