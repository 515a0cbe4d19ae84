package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	sessionrepo "storefront/internal/repository/session"
)

// Service validates session tokens. Tokens are normally minted by the identity
// provider; Issue exists for seeding and local development.
type Service struct {
	repo   sessionrepo.Repository
	logger *zap.Logger
	now    func() time.Time
}

func New(repo sessionrepo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger), now: time.Now}
}

func (s *Service) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	expiresAt := s.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = s.repo.Create(ctx, token, userID, expiresAt)
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// Authenticate resolves token to its session. Unknown and expired tokens yield
// ErrUnauthorized; expired ones are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	sess, err := s.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if s.now().After(sess.ExpiresAt) {
		if err := s.repo.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("delete expired session failed", zap.String("user_id", sess.UserID), zap.Error(err))
		}
		return nil, domain.ErrUnauthorized
	}
	return sess, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
