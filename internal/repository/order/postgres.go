package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const orderColumns = `id::text, user_id::text, email, ordered_at, line_items, total::text, status, delivery_date,
       address, payment_info, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	addr, err := json.Marshal(o.Address)
	if err != nil {
		return nil, err
	}
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return nil, err
	}
	orderedAt := o.OrderedAt
	if orderedAt.IsZero() {
		orderedAt = time.Now().UTC()
	}
	q := `
INSERT INTO orders (user_id, email, ordered_at, line_items, total, status, delivery_date, address, payment_info)
VALUES ($1, $2, $3, $4::jsonb, $5::text::numeric, $6, $7, $8::jsonb, $9::jsonb)
RETURNING ` + orderColumns
	created, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.UserID,
		o.Email,
		orderedAt,
		items,
		o.Total.String(),
		string(o.Status),
		o.DeliveryDate,
		addr,
		payment,
	))
	if err != nil {
		r.logger.Error("order repo: create failed", zap.String("user_id", o.UserID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("order repo: created", zap.String("order_id", created.ID), zap.Int("lines", len(created.Items)))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error("order repo: get failed", zap.String("order_id", id), zap.Error(err))
	}
	return o, err
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []domain.Order{}, nil
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY ordered_at DESC`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY ordered_at DESC`)
}

func (r *postgresRepo) ListByStatusBetween(ctx context.Context, status domain.OrderStatus, from, to time.Time) ([]domain.Order, error) {
	return r.list(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE status = $1 AND ordered_at >= $2 AND ordered_at <= $3
ORDER BY ordered_at ASC
`, string(status), from, to)
}

func (r *postgresRepo) Update(ctx context.Context, id string, expected domain.OrderStatus, upd Update) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	var status *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}
	q := `
UPDATE orders
SET status = COALESCE($3, status),
    delivery_date = COALESCE($4, delivery_date),
    updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + orderColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, string(expected), status, upd.DeliveryDate))
	if err == nil {
		r.logger.Info("order repo: updated", zap.String("order_id", id), zap.String("status", string(o.Status)))
		return o, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error("order repo: update failed", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrVersionConflict
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("order repo: deleted", zap.String("order_id", id))
	return nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("order repo: list failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                    domain.Order
		total, status        string
		items, addr, payment []byte
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Email,
		&o.OrderedAt,
		&items,
		&total,
		&status,
		&o.DeliveryDate,
		&addr,
		&payment,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total order_id=%s: %w", o.ID, err)
	}
	// Historical rows may carry items without a kind tag or with a null array.
	o.Items = []domain.OrderLineItem{}
	if len(items) > 0 && string(items) != "null" {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode line items order_id=%s: %w", o.ID, err)
		}
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &o.Address); err != nil {
			return nil, fmt.Errorf("decode address order_id=%s: %w", o.ID, err)
		}
	}
	if len(payment) > 0 {
		if err := json.Unmarshal(payment, &o.Payment); err != nil {
			return nil, fmt.Errorf("decode payment order_id=%s: %w", o.ID, err)
		}
	}
	return &o, nil
}
