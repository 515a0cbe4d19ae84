package order

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
	orderrepo "storefront/internal/repository/order"
)

const (
	statusWriteAttempts = 3
	notifyTimeout       = 15 * time.Second
)

type Service struct {
	repo     orderRepo
	catalog  catalogPort
	carts    cartClearer
	payments PaymentGate
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	async    func(func())
}

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, id string, expected domain.OrderStatus, upd orderrepo.Update) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

type catalogPort interface {
	Resolve(ctx context.Context, ref domain.CatalogRef) (*domain.CatalogItem, error)
	Probe(ctx context.Context, id string) (*domain.CatalogItem, error)
	AdjustStock(ctx context.Context, item domain.CatalogItem, delta int) (*domain.CatalogItem, error)
}

type cartClearer interface {
	Clear(ctx context.Context, userID string, basket domain.BasketType) error
}

// New wires the order service. A nil gate accepts every payment and a nil notifier
// disables confirmations.
func New(repo orderRepo, catalog catalogPort, carts cartClearer, payments PaymentGate, notifier Notifier, logger *zap.Logger) *Service {
	if payments == nil {
		payments = AcceptAll{}
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		carts:    carts,
		payments: payments,
		notifier: notifier,
		logger:   logging.OrNop(logger),
		now:      time.Now,
		async:    func(f func()) { go f() },
	}
}

type PlaceItem struct {
	ItemID   string          `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Kind     string          `json:"productType,omitempty"`
}

type PlaceInput struct {
	Items       []PlaceItem        `json:"items"`
	Total       *decimal.Decimal   `json:"total,omitempty"`
	Address     domain.Address     `json:"address"`
	PaymentInfo domain.PaymentInfo `json:"paymentInfo"`
}

type UpdateInput struct {
	Status       *string    `json:"status,omitempty"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
}

type placedLine struct {
	line domain.OrderLineItem
	item *domain.CatalogItem
}

// PlaceOrder records an order for the authenticated user and decrements stock for
// every line that resolves to a catalog record. Lines that resolve nowhere are kept
// in the order but leave stock alone. Decrements are committed one by one and are
// not undone when a later line fails.
func (s *Service) PlaceOrder(ctx context.Context, sess domain.Session, in PlaceInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.Validationf("items required")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.ItemID) == "" {
			return nil, domain.Validationf("items[%d]: product required", i)
		}
		if it.Quantity <= 0 {
			return nil, domain.Validationf("items[%d]: quantity must be positive", i)
		}
	}

	lines := make([]placedLine, 0, len(in.Items))
	for _, it := range in.Items {
		pl, err := s.resolveLine(ctx, it)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pl)
	}

	order := domain.Order{
		UserID:    sess.UserID,
		Email:     sess.Email,
		OrderedAt: s.now().UTC(),
		Status:    domain.StatusProcessing,
		Address:   in.Address,
		Payment:   in.PaymentInfo,
		Items:     make([]domain.OrderLineItem, 0, len(lines)),
	}
	for _, pl := range lines {
		order.Items = append(order.Items, pl.line)
	}
	order.Total = order.LineTotal()
	if in.Total != nil {
		order.Total = *in.Total
	}

	if err := s.payments.Authorize(ctx, sess, order.Total, in.PaymentInfo); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentRejected, err)
	}

	for _, pl := range lines {
		if pl.item == nil {
			s.logger.Warn("order line unresolved, stock untouched",
				zap.String("user_id", sess.UserID), zap.String("item_id", pl.line.ItemID))
			continue
		}
		if _, err := s.catalog.AdjustStock(ctx, *pl.item, -pl.line.Quantity); err != nil {
			s.logger.Error("stock decrement failed",
				zap.String("kind", string(pl.item.Kind)), zap.String("item_id", pl.item.ID), zap.Error(err))
			return nil, err
		}
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	if s.carts != nil {
		if err := s.carts.Clear(ctx, sess.UserID, domain.BasketCart); err != nil {
			s.logger.Warn("clear cart after order failed", zap.String("user_id", sess.UserID), zap.Error(err))
		}
	}
	s.notify(ctx, *created)
	return created, nil
}

// resolveLine trusts a recognised kind tag and probes both catalogs otherwise.
func (s *Service) resolveLine(ctx context.Context, it PlaceItem) (placedLine, error) {
	id := strings.TrimSpace(it.ItemID)
	line := domain.OrderLineItem{ItemID: id, UnitPrice: it.Price, Quantity: it.Quantity}

	var (
		item *domain.CatalogItem
		err  error
	)
	if kind, perr := domain.ParseKind(it.Kind); perr == nil {
		line.Kind = kind
		item, err = s.catalog.Resolve(ctx, domain.CatalogRef{Kind: kind, ID: id})
	} else {
		item, err = s.catalog.Probe(ctx, id)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return placedLine{line: line}, nil
	}
	if err != nil {
		return placedLine{}, err
	}

	line.Kind = item.Kind
	line.Name = item.Name
	line.Category = item.Category
	line.Brand = item.Brand
	line.UnitPrice = item.Price
	return placedLine{line: line, item: item}, nil
}

func (s *Service) notify(ctx context.Context, o domain.Order) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.async(func() {
		nctx, cancel := context.WithTimeout(detached, notifyTimeout)
		defer cancel()
		if err := s.notifier.OrderPlaced(nctx, o); err != nil {
			s.logger.Warn("order confirmation failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	})
}

func canAccess(sess domain.Session, o *domain.Order) bool {
	return sess.IsAdmin() || o.UserID == sess.UserID
}

func (s *Service) Get(ctx context.Context, sess domain.Session, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(sess, o) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, sess domain.Session) ([]domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Cancel moves the order to Cancelled for its owner or an admin. A second cancel
// fails with ErrAlreadyCancelled. Stock is not restored.
func (s *Service) Cancel(ctx context.Context, sess domain.Session, id string) (*domain.Order, error) {
	cancelled := domain.StatusCancelled
	for attempt := 1; ; attempt++ {
		o, err := s.Get(ctx, sess, id)
		if err != nil {
			return nil, err
		}
		if err := domain.CheckTransition(o.Status, cancelled); err != nil {
			return nil, err
		}
		updated, err := s.repo.Update(ctx, id, o.Status, orderrepo.Update{Status: &cancelled})
		if err == nil {
			s.logger.Info("order cancelled", zap.String("order_id", id), zap.String("by", sess.UserID))
			return updated, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= statusWriteAttempts {
			return nil, err
		}
	}
}

// AdminUpdate sets status and/or delivery date. Either field may be omitted but
// not both.
func (s *Service) AdminUpdate(ctx context.Context, id string, in UpdateInput) (*domain.Order, error) {
	if in.Status == nil && in.DeliveryDate == nil {
		return nil, domain.Validationf("status or deliveryDate required")
	}
	upd := orderrepo.Update{DeliveryDate: in.DeliveryDate}
	if in.Status != nil {
		status, err := domain.ParseOrderStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		upd.Status = &status
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil {
		if *upd.Status == o.Status && !o.Status.Terminal() {
			upd.Status = nil
		} else if err := domain.CheckTransition(o.Status, *upd.Status); err != nil {
			return nil, err
		}
	}
	if upd.Status == nil && upd.DeliveryDate == nil {
		return o, nil
	}
	updated, err := s.repo.Update(ctx, id, o.Status, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order updated", zap.String("order_id", id), zap.String("status", string(updated.Status)))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", zap.String("order_id", id))
	return nil
}
