package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	catalogrepo "storefront/internal/repository/catalog"
	sessionrepo "storefront/internal/repository/session"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/seed"
	sessionsvc "storefront/internal/service/session"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, "seed")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	creds, err := seed.Apply(ctx,
		userrepo.NewPostgres(pool, logger),
		catalogrepo.NewProductPostgres(pool, logger),
		catalogrepo.NewAccessoryPostgres(pool, logger),
		sessionsvc.New(sessionrepo.NewPostgres(pool, logger), logger),
		logger)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	for _, c := range creds {
		fmt.Printf("%-28s %-9s %s\n", c.Email, c.Role, c.Token)
	}
}
