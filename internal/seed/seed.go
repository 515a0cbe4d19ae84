package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	catalogrepo "storefront/internal/repository/catalog"
	userrepo "storefront/internal/repository/user"
)

const sessionTTL = 30 * 24 * time.Hour

type userSeed struct {
	Email string
	Name  string
	Role  string
}

// SessionIssuer mints development session tokens.
type SessionIssuer interface {
	Issue(ctx context.Context, userID string, ttl time.Duration) (string, error)
}

// Credential is a seeded user with a ready-to-use session token.
type Credential struct {
	Email string
	Role  string
	Token string
}

var demoUsers = []userSeed{
	{Email: "admin@storefront.local", Name: "Demo Admin", Role: domain.RoleAdmin},
	{Email: "shopper@storefront.local", Name: "Demo Shopper", Role: domain.RoleCustomer},
}

var products = []domain.CatalogItem{
	{
		ID:             "6f1c2a52-8d1e-4c3b-9a40-0d6f5e9b1a01",
		Name:           "Demo Phone",
		Description:    "6.1 inch display, 128 GB",
		Price:          decimal.RequireFromString("499.00"),
		Category:       "Mobile",
		Brand:          "Acme",
		Stock:          25,
		IsBestSeller:   true,
		Specifications: map[string]interface{}{"storage": "128GB", "color": "black"},
	},
	{
		ID:          "6f1c2a52-8d1e-4c3b-9a40-0d6f5e9b1a02",
		Name:        "Demo Laptop",
		Description: "14 inch ultrabook",
		Price:       decimal.RequireFromString("1099.00"),
		Category:    "Computers",
		Brand:       "Acme",
		Stock:       8,
		IsOffer:     true,
	},
}

var accessories = []domain.CatalogItem{
	{
		ID:             "9b7d4e10-2f3a-4e5b-8c61-7a2b3c4d5e01",
		Name:           "Demo Phone Case",
		Description:    "Silicone case",
		Price:          decimal.RequireFromString("19.99"),
		Category:       "Cases",
		Brand:          "Acme",
		Stock:          10,
		CompatibleWith: []string{"Demo Phone"},
	},
	{
		ID:          "9b7d4e10-2f3a-4e5b-8c61-7a2b3c4d5e02",
		Name:        "Demo Charger",
		Description: "65W USB-C",
		Price:       decimal.RequireFromString("39.00"),
		Category:    "Power",
		Brand:       "Volt",
		Stock:       30,
	},
}

// Apply inserts demo users and catalog records and issues one session per user.
// Existing users are reused and catalog rows are upserted; each run mints fresh tokens.
func Apply(ctx context.Context, users userrepo.Repository, productRepo, accessoryRepo catalogrepo.Repository, sessions SessionIssuer, logger *zap.Logger) ([]Credential, error) {
	logger = logging.OrNop(logger)
	for _, item := range products {
		if _, err := productRepo.Upsert(ctx, item); err != nil {
			return nil, fmt.Errorf("upsert product %s: %w", item.Name, err)
		}
	}
	for _, item := range accessories {
		if _, err := accessoryRepo.Upsert(ctx, item); err != nil {
			return nil, fmt.Errorf("upsert accessory %s: %w", item.Name, err)
		}
	}

	creds := make([]Credential, 0, len(demoUsers))
	for _, u := range demoUsers {
		id, err := ensureUser(ctx, users, u)
		if err != nil {
			return nil, fmt.Errorf("ensure user %s: %w", u.Email, err)
		}
		token, err := sessions.Issue(ctx, id, sessionTTL)
		if err != nil {
			return nil, fmt.Errorf("issue session for %s: %w", u.Email, err)
		}
		creds = append(creds, Credential{Email: u.Email, Role: u.Role, Token: token})
	}
	logger.Info("seed applied", zap.Int("products", len(products)), zap.Int("accessories", len(accessories)), zap.Int("users", len(demoUsers)))
	return creds, nil
}

func ensureUser(ctx context.Context, users userrepo.Repository, u userSeed) (string, error) {
	existing, err := users.GetByEmail(ctx, u.Email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	created, err := users.Create(ctx, domain.User{Email: u.Email, Name: u.Name, Role: u.Role})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}
