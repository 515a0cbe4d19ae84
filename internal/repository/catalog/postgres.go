package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type schema struct {
	table string
	// extra is the kind-specific JSONB document column.
	extra string
}

var schemas = map[domain.Kind]schema{
	domain.KindProduct:   {table: "products", extra: "specifications"},
	domain.KindAccessory: {table: "accessories", extra: "compatible_with"},
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	kind   domain.Kind
	schema schema
	logger *zap.Logger
}

// NewProductPostgres returns the products catalog backed by Postgres.
func NewProductPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return newPostgres(pool, domain.KindProduct, logger)
}

// NewAccessoryPostgres returns the accessories catalog backed by Postgres.
func NewAccessoryPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return newPostgres(pool, domain.KindAccessory, logger)
}

func newPostgres(pool *pgxpool.Pool, kind domain.Kind, logger *zap.Logger) *postgresRepo {
	return &postgresRepo{
		pool:   pool,
		kind:   kind,
		schema: schemas[kind],
		logger: logging.OrNop(logger).With(zap.String("catalog", string(kind))),
	}
}

func (r *postgresRepo) Kind() domain.Kind {
	return r.kind
}

func (r *postgresRepo) columns() string {
	return fmt.Sprintf(`id::text, name, description, price::text, category, brand, stock, is_offer, is_best_seller,
       image_url, ratings, reviews, %s, version, created_at`, r.schema.extra)
}

func (r *postgresRepo) List(ctx context.Context, filter domain.CatalogFilter) ([]domain.CatalogItem, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Brand != "" {
		args = append(args, filter.Brand)
		conds = append(conds, fmt.Sprintf("brand = $%d", len(args)))
	}
	if filter.OfferOnly {
		conds = append(conds, "is_offer")
	}
	if filter.BestSeller {
		conds = append(conds, "is_best_seller")
	}
	q := fmt.Sprintf("SELECT %s\nFROM %s", r.columns(), r.schema.table)
	if len(conds) > 0 {
		q += "\nWHERE " + strings.Join(conds, " AND ")
	}
	q += "\nORDER BY created_at DESC"

	items, err := r.query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list failed", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(items)))
	return items, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	// Ids from the other catalog or legacy orders may not be uuids at all.
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := fmt.Sprintf("SELECT %s\nFROM %s\nWHERE id = $1", r.columns(), r.schema.table)
	item, err := r.scanItem(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("get not found", zap.String("id", id))
			return nil, err
		}
		r.logger.Error("get failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (r *postgresRepo) FindByName(ctx context.Context, name string) ([]domain.CatalogItem, error) {
	q := fmt.Sprintf("SELECT %s\nFROM %s\nWHERE name = $1\nORDER BY created_at ASC", r.columns(), r.schema.table)
	items, err := r.query(ctx, q, name)
	if err != nil {
		r.logger.Error("find by name failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return items, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	if item.ID != "" {
		if _, err := uuid.Parse(item.ID); err != nil {
			return nil, domain.Validationf("invalid id %q", item.ID)
		}
	}
	extra, err := r.encodeExtra(item)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
INSERT INTO %[1]s (id, name, description, price, category, brand, stock, is_offer, is_best_seller, image_url, %[2]s)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10, $11::jsonb)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    category = EXCLUDED.category,
    brand = EXCLUDED.brand,
    stock = EXCLUDED.stock,
    is_offer = EXCLUDED.is_offer,
    is_best_seller = EXCLUDED.is_best_seller,
    image_url = EXCLUDED.image_url,
    %[2]s = EXCLUDED.%[2]s,
    version = %[1]s.version + 1
RETURNING %[3]s
`, r.schema.table, r.schema.extra, r.columns())
	saved, err := r.scanItem(r.pool.QueryRow(ctx, q,
		item.ID,
		item.Name,
		item.Description,
		item.Price.String(),
		item.Category,
		item.Brand,
		item.Stock,
		item.IsOffer,
		item.IsBestSeller,
		item.ImageURL,
		extra,
	))
	if err != nil {
		r.logger.Error("upsert failed", zap.String("name", item.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Info("upserted", zap.String("id", saved.ID), zap.Int("version", saved.Version))
	return saved, nil
}

func (r *postgresRepo) UpdateStock(ctx context.Context, id string, stock, expectedVersion int) (*domain.CatalogItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := fmt.Sprintf(`
UPDATE %s
SET stock = $2, version = version + 1
WHERE id = $1 AND version = $3
RETURNING %s
`, r.schema.table, r.columns())
	item, err := r.scanItem(r.pool.QueryRow(ctx, q, id, stock, expectedVersion))
	if err == nil {
		r.logger.Debug("stock updated", zap.String("id", id), zap.Int("stock", stock), zap.Int("version", item.Version))
		return item, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		r.logger.Error("stock update failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	r.logger.Debug("stock update lost race", zap.String("id", id), zap.Int("expected_version", expectedVersion))
	return nil, domain.ErrVersionConflict
}

func (r *postgresRepo) AppendReview(ctx context.Context, id string, review domain.Review) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	doc, err := json.Marshal(review)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
UPDATE %s
SET reviews = reviews || jsonb_build_array($2::jsonb), version = version + 1
WHERE id = $1
  AND NOT EXISTS (SELECT 1 FROM jsonb_array_elements(reviews) AS r WHERE r->>'user' = $3)
`, r.schema.table)
	cmd, err := r.pool.Exec(ctx, q, id, doc, review.User)
	if err != nil {
		r.logger.Error("append review failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrAlreadyReviewed
	}
	return nil
}

func (r *postgresRepo) PutRating(ctx context.Context, id string, rating domain.Rating) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	doc, err := json.Marshal(rating)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
UPDATE %s
SET ratings = COALESCE((SELECT jsonb_agg(r) FROM jsonb_array_elements(ratings) AS r WHERE r->>'user' <> $3), '[]'::jsonb)
              || jsonb_build_array($2::jsonb),
    version = version + 1
WHERE id = $1
`, r.schema.table)
	cmd, err := r.pool.Exec(ctx, q, id, doc, rating.User)
	if err != nil {
		r.logger.Error("put rating failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.CatalogItem, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CatalogItem
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) scanItem(row pgx.Row) (*domain.CatalogItem, error) {
	var (
		item                       domain.CatalogItem
		price                      string
		ratings, reviews, extraDoc []byte
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&price,
		&item.Category,
		&item.Brand,
		&item.Stock,
		&item.IsOffer,
		&item.IsBestSeller,
		&item.ImageURL,
		&ratings,
		&reviews,
		&extraDoc,
		&item.Version,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	item.Kind = r.kind
	item.InStock = item.Stock > 0
	if item.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("decode price id=%s: %w", item.ID, err)
	}
	item.Ratings = []domain.Rating{}
	if len(ratings) > 0 {
		if err := json.Unmarshal(ratings, &item.Ratings); err != nil {
			return nil, fmt.Errorf("decode ratings id=%s: %w", item.ID, err)
		}
	}
	item.Reviews = []domain.Review{}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &item.Reviews); err != nil {
			return nil, fmt.Errorf("decode reviews id=%s: %w", item.ID, err)
		}
	}
	if len(extraDoc) > 0 {
		var target interface{} = &item.Specifications
		if r.kind == domain.KindAccessory {
			target = &item.CompatibleWith
		}
		if err := json.Unmarshal(extraDoc, target); err != nil {
			return nil, fmt.Errorf("decode %s id=%s: %w", r.schema.extra, item.ID, err)
		}
	}
	return &item, nil
}

func (r *postgresRepo) encodeExtra(item domain.CatalogItem) ([]byte, error) {
	if r.kind == domain.KindAccessory {
		list := item.CompatibleWith
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	}
	specs := item.Specifications
	if specs == nil {
		specs = map[string]interface{}{}
	}
	return json.Marshal(specs)
}
