package notify

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

// OrderMailer renders order confirmations and hands them to an EmailClient.
// A nil client turns it into a no-op.
type OrderMailer struct {
	client EmailClient
	from   string
}

func NewOrderMailer(client EmailClient, from string) *OrderMailer {
	return &OrderMailer{client: client, from: from}
}

func (m *OrderMailer) OrderPlaced(ctx context.Context, o domain.Order) error {
	if m == nil || m.client == nil || o.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Order %s confirmed", o.ID)
	return m.client.Send(ctx, m.from, o.Email, subject, renderOrder(o))
}

func renderOrder(o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order.\n\nOrder: %s\nStatus: %s\n\n", o.ID, o.Status)
	for _, li := range o.Items {
		name := li.Name
		if name == "" {
			name = li.ItemID
		}
		fmt.Fprintf(&b, "%d x %s @ %s\n", li.Quantity, name, li.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", o.Total.StringFixed(2))
	if a := o.Address; a.Street != "" {
		fmt.Fprintf(&b, "\nShipping to:\n%s\n%s\n%s %s\n%s\n", a.Name, a.Street, a.City, a.PostalCode, a.Country)
	}
	return b.String()
}
