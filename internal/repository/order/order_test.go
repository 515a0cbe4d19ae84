package order

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func TestPostgres_CreateListAndConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := NewPostgres(pool, nil)
	userID := "6f1c2d7e-52a4-4a53-9a55-0a6f0d3c2b11"
	now := time.Now().UTC()
	created, err := repo.Create(ctx, domain.Order{
		UserID:    userID,
		Email:     "buyer@example.com",
		OrderedAt: now,
		Items: []domain.OrderLineItem{
			{ItemID: "a1", Kind: domain.KindAccessory, Name: "Case", UnitPrice: decimal.NewFromInt(10), Quantity: 3},
			{ItemID: "legacy", Name: "Old", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
		},
		Total:  decimal.NewFromInt(35),
		Status: domain.StatusProcessing,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created.Items) != 2 || created.Items[1].Kind != "" || !created.Total.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("unexpected order %+v", created)
	}

	mine, err := repo.ListByUser(ctx, userID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListByUser: %v %d", err, len(mine))
	}

	shipped := domain.StatusShipped
	updated, err := repo.Update(ctx, created.ID, domain.StatusProcessing, Update{Status: &shipped})
	if err != nil || updated.Status != domain.StatusShipped {
		t.Fatalf("Update: %v %+v", err, updated)
	}
	if _, err := repo.Update(ctx, created.ID, domain.StatusProcessing, Update{Status: &shipped}); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	delivered, err := repo.ListByStatusBetween(ctx, domain.StatusShipped, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil || len(delivered) != 1 {
		t.Fatalf("ListByStatusBetween: %v %d", err, len(delivered))
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
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
	if _, err := pool.Exec(ctx, `TRUNCATE orders RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}
