package basket

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) List(ctx context.Context, userID string, basket domain.BasketType) ([]domain.BasketEntry, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT item_id, kind, quantity, added_at
FROM basket_entries
WHERE user_id = $1 AND basket = $2
ORDER BY added_at ASC, item_id ASC
`
	rows, err := r.pool.Query(ctx, q, userID, string(basket))
	if err != nil {
		r.logger.Error("basket repo: list failed", zap.String("user_id", userID), zap.String("basket", string(basket)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := []domain.BasketEntry{}
	for rows.Next() {
		var (
			e    domain.BasketEntry
			kind string
		)
		if err := rows.Scan(&e.Ref.ID, &kind, &e.Quantity, &e.AddedAt); err != nil {
			return nil, err
		}
		e.Ref.Kind = domain.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresRepo) Add(ctx context.Context, userID string, basket domain.BasketType, ref domain.CatalogRef) error {
	onConflict := "DO NOTHING"
	if basket == domain.BasketCart {
		onConflict = "DO UPDATE SET quantity = basket_entries.quantity + 1"
	}
	// The increment happens inside the upsert so concurrent adds cannot lose an update.
	q := fmt.Sprintf(`
INSERT INTO basket_entries (user_id, basket, item_id, kind, quantity)
VALUES ($1, $2, $3, $4, 1)
ON CONFLICT (user_id, basket, item_id, kind) %s
`, onConflict)
	if _, err := r.pool.Exec(ctx, q, userID, string(basket), ref.ID, string(ref.Kind)); err != nil {
		r.logger.Error("basket repo: add failed",
			zap.String("user_id", userID), zap.String("basket", string(basket)),
			zap.String("item_id", ref.ID), zap.String("kind", string(ref.Kind)), zap.Error(err))
		return err
	}
	r.logger.Debug("basket repo: added", zap.String("user_id", userID), zap.String("basket", string(basket)), zap.String("item_id", ref.ID))
	return nil
}

func (r *postgresRepo) Remove(ctx context.Context, userID string, basket domain.BasketType, ref domain.CatalogRef) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM basket_entries
WHERE user_id = $1 AND basket = $2 AND item_id = $3 AND kind = $4
`, userID, string(basket), ref.ID, string(ref.Kind))
	if err != nil {
		r.logger.Error("basket repo: remove failed", zap.String("user_id", userID), zap.String("item_id", ref.ID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, userID string, basket domain.BasketType) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM basket_entries WHERE user_id = $1 AND basket = $2`, userID, string(basket))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
