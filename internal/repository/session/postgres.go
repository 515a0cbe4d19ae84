package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func (r *postgresRepo) Create(ctx context.Context, token, userID string, expiresAt time.Time) error {
	if _, err := uuid.Parse(userID); err != nil {
		return domain.ErrNotFound
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt.UTC())
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		r.logger.Debug("session created", zap.String("user_id", userID), zap.Time("expires_at", expiresAt))
		return nil
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return domain.ErrAlreadyExists
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		// foreign key: the user does not exist
		return domain.ErrNotFound
	default:
		r.logger.Error("create session failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
}

func (r *postgresRepo) Get(ctx context.Context, token string) (*domain.Session, error) {
	row := r.pool.QueryRow(ctx, `
SELECT s.token, s.user_id::text, u.email, u.role, s.expires_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token = $1`, token)

	var sess domain.Session
	err := row.Scan(&sess.Token, &sess.UserID, &sess.Email, &sess.Role, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Error("load session failed", zap.Error(err))
		return nil, err
	}
	return &sess, nil
}

func (r *postgresRepo) Delete(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		r.logger.Error("delete session failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
