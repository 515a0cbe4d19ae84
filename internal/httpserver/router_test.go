package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	analyticssvc "storefront/internal/service/analytics"
	catalogsvc "storefront/internal/service/catalog"
	ordersvc "storefront/internal/service/order"
)

type stubSessions map[string]domain.Session

func (s stubSessions) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	if token == "broken" {
		return nil, errors.New("db down")
	}
	sess, ok := s[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &sess, nil
}

type stubCatalog struct {
	lastKind   domain.Kind
	lastFilter domain.CatalogFilter
	lastStock  int
	err        error
}

func (s *stubCatalog) List(_ context.Context, kind domain.Kind, filter domain.CatalogFilter) ([]domain.CatalogItem, error) {
	s.lastKind, s.lastFilter = kind, filter
	return []domain.CatalogItem{{ID: "p1", Kind: kind}}, s.err
}

func (s *stubCatalog) Get(_ context.Context, kind domain.Kind, id string) (*domain.CatalogItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CatalogItem{ID: id, Kind: kind}, nil
}

func (s *stubCatalog) Upsert(_ context.Context, kind domain.Kind, in catalogsvc.UpsertInput) (*domain.CatalogItem, error) {
	return &domain.CatalogItem{ID: in.ID, Kind: kind, Name: in.Name}, s.err
}

func (s *stubCatalog) SetStock(_ context.Context, kind domain.Kind, id string, stock int) (*domain.CatalogItem, error) {
	s.lastStock = stock
	return &domain.CatalogItem{ID: id, Kind: kind, Stock: stock}, s.err
}

func (s *stubCatalog) AddReview(_ context.Context, kind domain.Kind, id, _ string, _ catalogsvc.ReviewInput) (*domain.CatalogItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CatalogItem{ID: id, Kind: kind}, nil
}

func (s *stubCatalog) AddRating(_ context.Context, kind domain.Kind, id, _ string, _ int) (*domain.CatalogItem, error) {
	return &domain.CatalogItem{ID: id, Kind: kind}, s.err
}

type basketCall struct {
	user, item, kind string
	basket           domain.BasketType
}

type stubBaskets struct {
	calls []basketCall
	err   error
}

func (s *stubBaskets) AddItem(_ context.Context, userID string, basket domain.BasketType, itemID, kind string) (*domain.Basket, error) {
	s.calls = append(s.calls, basketCall{userID, itemID, kind, basket})
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Basket{UserID: userID, Type: basket}, nil
}

func (s *stubBaskets) RemoveItem(_ context.Context, userID string, basket domain.BasketType, itemID, kind string) (*domain.Basket, error) {
	s.calls = append(s.calls, basketCall{userID, itemID, kind, basket})
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Basket{UserID: userID, Type: basket}, nil
}

func (s *stubBaskets) Get(_ context.Context, userID string, basket domain.BasketType) (*domain.Basket, error) {
	return &domain.Basket{UserID: userID, Type: basket}, s.err
}

type stubOrders struct {
	placedBy  domain.Session
	placed    ordersvc.PlaceInput
	update    ordersvc.UpdateInput
	cancelErr error
	orders    []domain.Order
}

func (s *stubOrders) PlaceOrder(_ context.Context, sess domain.Session, in ordersvc.PlaceInput) (*domain.Order, error) {
	s.placedBy, s.placed = sess, in
	return &domain.Order{ID: "o1", UserID: sess.UserID, Status: domain.StatusProcessing}, nil
}

func (s *stubOrders) Cancel(_ context.Context, _ domain.Session, id string) (*domain.Order, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &domain.Order{ID: id, Status: domain.StatusCancelled}, nil
}

func (s *stubOrders) Get(_ context.Context, _ domain.Session, id string) (*domain.Order, error) {
	return &domain.Order{ID: id}, nil
}

func (s *stubOrders) ListForUser(_ context.Context, _ domain.Session) ([]domain.Order, error) {
	return s.orders, nil
}

func (s *stubOrders) ListAll(_ context.Context) ([]domain.Order, error) {
	return s.orders, nil
}

func (s *stubOrders) AdminUpdate(_ context.Context, id string, in ordersvc.UpdateInput) (*domain.Order, error) {
	s.update = in
	return &domain.Order{ID: id}, nil
}

func (s *stubOrders) Delete(_ context.Context, _ string) error { return nil }

type stubAnalytics struct {
	last analyticssvc.Query
	err  error
}

func (s *stubAnalytics) Sales(_ context.Context, q analyticssvc.Query) (*domain.SalesReport, error) {
	s.last = q
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SalesReport{Kind: domain.KindAccessory, Items: []domain.SalesRow{}}, nil
}

type fixture struct {
	router    *gin.Engine
	catalog   *stubCatalog
	baskets   *stubBaskets
	orders    *stubOrders
	analytics *stubAnalytics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		catalog:   &stubCatalog{},
		baskets:   &stubBaskets{},
		orders:    &stubOrders{},
		analytics: &stubAnalytics{},
	}
	router, err := buildRouter(zap.NewNop(), nil, Deps{
		Sessions: stubSessions{
			"alice": {Token: "alice", UserID: "u1", Email: "alice@example.com", Role: domain.RoleCustomer},
			"root":  {Token: "root", UserID: "admin", Role: domain.RoleAdmin},
		},
		Catalog:       f.catalog,
		Baskets:       f.baskets,
		Orders:        f.orders,
		Analytics:     f.analytics,
		SessionCookie: "sid",
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	f.router = router
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestBuildRouterRequiresServices(t *testing.T) {
	if _, err := buildRouter(zap.NewNop(), nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing services")
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]struct {
		store Pinger
		want  int
	}{
		"no store":    {store: nil, want: http.StatusServiceUnavailable},
		"unreachable": {store: stubPinger{err: errors.New("dial tcp")}, want: http.StatusServiceUnavailable},
		"ready":       {store: stubPinger{}, want: http.StatusOK},
	}
	for name, tc := range cases {
		router := gin.New()
		router.GET("/readyz", readyHandler(tc.store, zap.NewNop()))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", name, tc.want, rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Success != (tc.want == http.StatusOK) {
			t.Fatalf("%s: unexpected envelope %+v", name, env)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidKind, http.StatusBadRequest},
		{domain.Validationf("items required"), http.StatusBadRequest},
		{fmt.Errorf("%w: declined", domain.ErrPaymentRejected), http.StatusPaymentRequired},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrAlreadyCancelled, http.StatusConflict},
		{domain.ErrAlreadyReviewed, http.StatusConflict},
		{domain.ErrVersionConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestSessionMiddleware(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodGet, "/orders", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/orders", "nope", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown session, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/orders", "broken", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on lookup failure, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "alice"})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d body=%s", rec.Code, rec.Body.String())
	}
	if env := decodeEnvelope(t, rec); !env.Success {
		t.Fatalf("expected success envelope")
	}
}

func TestAddToCartPassesSessionUser(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/cart/add", "alice", `{"productId":"x","model":"Accessory","userId":"spoofed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	got := f.baskets.calls[0]
	if got.user != "u1" || got.item != "x" || got.kind != "Accessory" || got.basket != domain.BasketCart {
		t.Fatalf("unexpected call %+v", got)
	}

	rec = f.do(http.MethodPost, "/wishlist/remove", "alice", `{"product":"y","model":"Product"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := f.baskets.calls[1]; got.item != "y" || got.basket != domain.BasketWishlist {
		t.Fatalf("unexpected call %+v", got)
	}
}

func TestBasketErrorsMapToEnvelope(t *testing.T) {
	f := newFixture(t)
	f.baskets.err = domain.ErrInvalidKind

	rec := f.do(http.MethodPost, "/cart/add", "alice", `{"productId":"x","model":"Gadget"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || !strings.Contains(env.Message, "kind") {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestGetBasketOwnership(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodGet, "/cart/u2", "alice", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/cart/u1", "alice", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/wishlist/u2", "root", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)

	body := `{"items":[{"product":"x","quantity":3,"price":"10.50","productType":"Accessory"}],"total":"31.50","address":{"city":"Pune"}}`
	rec := f.do(http.MethodPost, "/orders", "alice", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.orders.placedBy.UserID != "u1" || f.orders.placedBy.Email != "alice@example.com" {
		t.Fatalf("expected session identity, got %+v", f.orders.placedBy)
	}
	in := f.orders.placed
	if len(in.Items) != 1 || in.Items[0].ItemID != "x" || in.Items[0].Quantity != 3 || in.Items[0].Kind != "Accessory" {
		t.Fatalf("unexpected input %+v", in.Items)
	}
	if in.Total == nil || in.Total.String() != "31.5" || in.Address.City != "Pune" {
		t.Fatalf("unexpected totals/address %+v", in)
	}

	if rec := f.do(http.MethodPost, "/orders", "alice", `{"items":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on malformed body, got %d", rec.Code)
	}
}

func TestCancelOrderTwice(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodPatch, "/orders/o1/cancel", "alice", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	f.orders.cancelErr = domain.ErrAlreadyCancelled
	rec := f.do(http.MethodPatch, "/orders/o1/cancel", "alice", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	f.orders.cancelErr = domain.ErrForbidden
	if rec := f.do(http.MethodPatch, "/orders/o1/cancel", "alice", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodPut, "/admin/orders/o1", "alice", `{"status":"Shipped"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}
	rec := f.do(http.MethodPut, "/admin/orders/o1", "root", `{"status":"Shipped","deliveryDate":"2024-06-01T00:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.orders.update.Status == nil || *f.orders.update.Status != "Shipped" || f.orders.update.DeliveryDate == nil {
		t.Fatalf("unexpected update %+v", f.orders.update)
	}
	if rec := f.do(http.MethodDelete, "/admin/orders/o1", "root", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPatch, "/admin/catalog/accessory/a1/stock", "root", `{"stock":0}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on stock update, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := f.do(http.MethodPatch, "/admin/catalog/accessory/a1/stock", "root", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without stock, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPut, "/admin/catalog/product", "root", `{"id":"p9","name":"Tablet","price":"199.99"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on upsert, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCatalogRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/catalog/Accessory?category=Cases&offer=true", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.catalog.lastKind != domain.KindAccessory || f.catalog.lastFilter.Category != "Cases" || !f.catalog.lastFilter.OfferOnly {
		t.Fatalf("unexpected list call %s %+v", f.catalog.lastKind, f.catalog.lastFilter)
	}
	if rec := f.do(http.MethodGet, "/catalog/gadget", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid kind, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/catalog/product/p1/reviews", "", `{"value":4}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous review, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/catalog/product/p1/reviews", "alice", `{"value":4,"text":"ok"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	f.catalog.err = domain.ErrAlreadyReviewed
	if rec := f.do(http.MethodPost, "/catalog/product/p1/reviews", "alice", `{"value":4}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	f.catalog.err = domain.ErrNotFound
	if rec := f.do(http.MethodGet, "/catalog/product/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSalesAnalyticsRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/analytics/sales?type=Accessory&brand=Acme&range=week", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without session, got %d", rec.Code)
	}
	if f.analytics.last.Kind != "Accessory" || f.analytics.last.Brand != "Acme" || f.analytics.last.Range != "week" {
		t.Fatalf("unexpected query %+v", f.analytics.last)
	}
	if !strings.Contains(rec.Body.String(), `"highestSale":null`) {
		t.Fatalf("expected null extremes, got %s", rec.Body.String())
	}

	f.analytics.err = errors.New("catalog unreachable")
	rec = f.do(http.MethodGet, "/analytics/sales?type=Product", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "unreachable") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}
