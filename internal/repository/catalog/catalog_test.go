package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func TestPostgres_UpsertGetAndList(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewProductPostgres(pool, nil)
	saved, err := repo.Upsert(ctx, domain.CatalogItem{
		Name:           "Phone X",
		Price:          decimal.RequireFromString("499.90"),
		Category:       "phones",
		Brand:          "Acme",
		Stock:          4,
		Specifications: map[string]interface{}{"ram": "8GB"},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.ID == "" || saved.Kind != domain.KindProduct || !saved.InStock || saved.Version != 1 {
		t.Fatalf("unexpected saved item %+v", saved)
	}

	got, err := repo.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("499.90")) || got.Specifications["ram"] != "8GB" {
		t.Fatalf("unexpected fetched item %+v", got)
	}

	list, err := repo.List(ctx, domain.CatalogFilter{Category: "phones", Brand: "Acme"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 item, got %d", len(list))
	}
	if list, _ = repo.List(ctx, domain.CatalogFilter{Brand: "Other"}); len(list) != 0 {
		t.Fatalf("expected brand filter to exclude item, got %d", len(list))
	}
}

func TestPostgres_IDsAreCatalogScoped(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	products := NewProductPostgres(pool, nil)
	accessories := NewAccessoryPostgres(pool, nil)
	acc, err := accessories.Upsert(ctx, domain.CatalogItem{Name: "Case", Price: decimal.NewFromInt(10), CompatibleWith: []string{"Phone X"}})
	if err != nil {
		t.Fatalf("Upsert accessory: %v", err)
	}
	if _, err := products.GetByID(ctx, acc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from products, got %v", err)
	}
	if _, err := products.GetByID(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	byName, err := accessories.FindByName(ctx, "Case")
	if err != nil || len(byName) != 1 || byName[0].CompatibleWith[0] != "Phone X" {
		t.Fatalf("FindByName: %v %+v", err, byName)
	}
}

func TestPostgres_UpdateStockChecksVersion(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewAccessoryPostgres(pool, nil)
	item, err := repo.Upsert(ctx, domain.CatalogItem{Name: "Charger", Price: decimal.NewFromInt(25), Stock: 10})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	updated, err := repo.UpdateStock(ctx, item.ID, 7, item.Version)
	if err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if updated.Stock != 7 || updated.Version != item.Version+1 {
		t.Fatalf("unexpected updated item %+v", updated)
	}
	if _, err := repo.UpdateStock(ctx, item.ID, 5, item.Version); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if _, err := repo.UpdateStock(ctx, uuid.NewString(), 5, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_ReviewsAndRatings(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewProductPostgres(pool, nil)
	item, err := repo.Upsert(ctx, domain.CatalogItem{Name: "Laptop", Price: decimal.NewFromInt(900)})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.AppendReview(ctx, item.ID, domain.Review{User: "u1", Value: 5, Text: "great"}); err != nil {
		t.Fatalf("AppendReview: %v", err)
	}
	if err := repo.AppendReview(ctx, item.ID, domain.Review{User: "u1", Value: 1}); !errors.Is(err, domain.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
	if err := repo.PutRating(ctx, item.ID, domain.Rating{User: "u1", Value: 3}); err != nil {
		t.Fatalf("PutRating: %v", err)
	}
	if err := repo.PutRating(ctx, item.ID, domain.Rating{User: "u1", Value: 4}); err != nil {
		t.Fatalf("PutRating again: %v", err)
	}
	got, err := repo.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Reviews) != 1 || len(got.Ratings) != 1 || got.Ratings[0].Value != 4 {
		t.Fatalf("unexpected reviews/ratings %+v %+v", got.Reviews, got.Ratings)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
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
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE orders, basket_entries, accessories, products, sessions, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
