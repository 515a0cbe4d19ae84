package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	analyticssvc "storefront/internal/service/analytics"
	catalogsvc "storefront/internal/service/catalog"
	ordersvc "storefront/internal/service/order"
)

type sessionService interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

type catalogService interface {
	List(ctx context.Context, kind domain.Kind, filter domain.CatalogFilter) ([]domain.CatalogItem, error)
	Get(ctx context.Context, kind domain.Kind, id string) (*domain.CatalogItem, error)
	Upsert(ctx context.Context, kind domain.Kind, in catalogsvc.UpsertInput) (*domain.CatalogItem, error)
	SetStock(ctx context.Context, kind domain.Kind, id string, stock int) (*domain.CatalogItem, error)
	AddReview(ctx context.Context, kind domain.Kind, id, userID string, in catalogsvc.ReviewInput) (*domain.CatalogItem, error)
	AddRating(ctx context.Context, kind domain.Kind, id, userID string, value int) (*domain.CatalogItem, error)
}

type basketService interface {
	AddItem(ctx context.Context, userID string, basket domain.BasketType, itemID, kind string) (*domain.Basket, error)
	RemoveItem(ctx context.Context, userID string, basket domain.BasketType, itemID, kind string) (*domain.Basket, error)
	Get(ctx context.Context, userID string, basket domain.BasketType) (*domain.Basket, error)
}

type orderService interface {
	PlaceOrder(ctx context.Context, sess domain.Session, in ordersvc.PlaceInput) (*domain.Order, error)
	Cancel(ctx context.Context, sess domain.Session, id string) (*domain.Order, error)
	Get(ctx context.Context, sess domain.Session, id string) (*domain.Order, error)
	ListForUser(ctx context.Context, sess domain.Session) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	AdminUpdate(ctx context.Context, id string, in ordersvc.UpdateInput) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

type analyticsService interface {
	Sales(ctx context.Context, q analyticssvc.Query) (*domain.SalesReport, error)
}

// Deps carries the services behind the routes.
type Deps struct {
	Sessions      sessionService
	Catalog       catalogService
	Baskets       basketService
	Orders        orderService
	Analytics     analyticsService
	SessionCookie string
	AllowOrigins  []string
}

type api struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, store Pinger, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil || deps.Catalog == nil || deps.Baskets == nil || deps.Orders == nil || deps.Analytics == nil {
		return nil, errors.New("httpserver: missing service dependency")
	}
	logger = logging.OrNop(logger)
	if deps.SessionCookie == "" {
		deps.SessionCookie = "session"
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	if len(deps.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	a := &api{deps: deps, logger: logger}
	auth := sessionMiddleware(deps.Sessions, deps.SessionCookie)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store, logger))

	catalog := router.Group("/catalog/:kind")
	catalog.GET("", a.listCatalog)
	catalog.GET("/:id", a.getCatalogItem)
	catalog.POST("/:id/reviews", auth, a.addReview)
	catalog.POST("/:id/ratings", auth, a.addRating)

	for _, b := range []domain.BasketType{domain.BasketCart, domain.BasketWishlist} {
		g := router.Group("/"+string(b), auth)
		g.POST("/add", a.addToBasket(b))
		g.POST("/remove", a.removeFromBasket(b))
		g.GET("/:userId", a.getBasket(b))
	}

	orders := router.Group("/orders", auth)
	orders.POST("", a.placeOrder)
	orders.GET("", a.listMyOrders)
	orders.GET("/:id", a.getOrder)
	orders.PATCH("/:id/cancel", a.cancelOrder)

	admin := router.Group("/admin", auth, requireAdmin())
	admin.GET("/orders", a.listAllOrders)
	admin.PUT("/orders/:id", a.updateOrder)
	admin.DELETE("/orders/:id", a.deleteOrder)
	admin.PUT("/catalog/:kind", a.upsertCatalogItem)
	admin.PATCH("/catalog/:kind/:id/stock", a.setStock)

	router.GET("/analytics/sales", a.salesAnalytics)

	return router, nil
}
