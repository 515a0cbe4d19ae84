package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/notify"
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

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, "api")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	productRepo := catalogrepo.NewProductPostgres(dbpool, logger)
	accessoryRepo := catalogrepo.NewAccessoryPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	catalogService := catalogsvc.New(productRepo, accessoryRepo, cfg.StockUpdateAttempts, logger)
	basketService := basketsvc.New(basketrepo.NewPostgres(dbpool, logger), catalogService, userrepo.NewPostgres(dbpool, logger), logger)
	sessionService := sessionsvc.New(sessionrepo.NewPostgres(dbpool, logger), logger)

	var mailer *notify.OrderMailer
	if cfg.SendGridAPIKey != "" {
		mailer = notify.NewOrderMailer(notify.NewSendGridClient(cfg.SendGridAPIKey, logger), cfg.MailFrom)
	} else {
		logger.Info("SENDGRID_API_KEY not set, order confirmations disabled")
	}
	var notifier ordersvc.Notifier
	if mailer != nil {
		notifier = mailer
	}
	orderService := ordersvc.New(orderRepo, catalogService, basketService, ordersvc.AcceptAll{}, notifier, logger)
	analyticsService := analyticssvc.New(orderRepo, catalogService, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:      sessionService,
		Catalog:       catalogService,
		Baskets:       basketService,
		Orders:        orderService,
		Analytics:     analyticsService,
		SessionCookie: cfg.SessionCookie,
		AllowOrigins:  cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
