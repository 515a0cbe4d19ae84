package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/migrate"
	basketrepo "storefront/internal/repository/basket"
	catalogrepo "storefront/internal/repository/catalog"
	orderrepo "storefront/internal/repository/order"
	sessionrepo "storefront/internal/repository/session"
	userrepo "storefront/internal/repository/user"
	analyticssvc "storefront/internal/service/analytics"
	basketsvc "storefront/internal/service/basket"
	catalogsvc "storefront/internal/service/catalog"
	ordersvc "storefront/internal/service/order"
	sessionsvc "storefront/internal/service/session"
)

func TestCheckout_IntegrationDecrementsAccessoryStock(t *testing.T) {
	ctx := context.Background()
	pool := checkoutPool(ctx, t)
	defer pool.Close()

	users := userrepo.NewPostgres(pool, nil)
	buyer, err := users.Create(ctx, domain.User{Email: "buyer@example.com", Name: "Buyer", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sessions := sessionsvc.New(sessionrepo.NewPostgres(pool, nil), nil)
	token, err := sessions.Issue(ctx, buyer.ID, time.Hour)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	accessories := catalogrepo.NewAccessoryPostgres(pool, nil)
	x, err := accessories.Upsert(ctx, domain.CatalogItem{Name: "Accessory X", Price: decimal.RequireFromString("12.00"), Stock: 10})
	if err != nil {
		t.Fatalf("upsert accessory: %v", err)
	}

	catalog := catalogsvc.New(catalogrepo.NewProductPostgres(pool, nil), accessories, 3, nil)
	orders := orderrepo.NewPostgres(pool, nil)
	baskets := basketsvc.New(basketrepo.NewPostgres(pool, nil), catalog, users, nil)

	gin.SetMode(gin.TestMode)
	router, err := buildRouter(nil, pool, Deps{
		Sessions:  sessions,
		Catalog:   catalog,
		Baskets:   baskets,
		Orders:    ordersvc.New(orders, catalog, baskets, nil, nil, nil),
		Analytics: analyticssvc.New(orders, catalog, nil),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := call(http.MethodPost, "/cart/add", fmt.Sprintf(`{"productId":%q,"model":"Accessory"}`, x.ID)); rec.Code != http.StatusOK {
		t.Fatalf("add to cart: %d %s", rec.Code, rec.Body.String())
	}
	rec := call(http.MethodPost, "/orders", fmt.Sprintf(`{"items":[{"product":%q,"quantity":3,"price":"12.00","productType":"Accessory"}]}`, x.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("place order: %d %s", rec.Code, rec.Body.String())
	}

	after, err := accessories.GetByID(ctx, x.ID)
	if err != nil {
		t.Fatalf("reload accessory: %v", err)
	}
	if after.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", after.Stock)
	}

	rec = call(http.MethodGet, "/orders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list orders: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool           `json:"success"`
		Data    []domain.Order `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("expected one order, got %d", len(body.Data))
	}
	o := body.Data[0]
	if o.Status != domain.StatusProcessing || len(o.Items) != 1 || o.Items[0].ItemID != x.ID || o.Items[0].Quantity != 3 {
		t.Fatalf("unexpected order %+v", o)
	}

	cart, err := baskets.Get(ctx, buyer.ID, domain.BasketCart)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(cart.Entries) != 0 {
		t.Fatalf("expected cart cleared after checkout, got %d entries", len(cart.Entries))
	}
}

func checkoutPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if _, err := migrate.Apply(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE orders, basket_entries, accessories, products, sessions, users RESTART IDENTITY CASCADE`); err != nil {
		pool.Close()
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}
