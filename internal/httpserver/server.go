package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server owns the storefront http.Server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New builds a Server with every storefront and back-office route. A nil pool
// makes /readyz report unavailable.
func New(addr string, logger *zap.Logger, pool *pgxpool.Pool, deps Deps) (*Server, error) {
	logger = logging.OrNop(logger)
	var store Pinger
	if pool != nil {
		store = pool
	}
	router, err := buildRouter(logger, store, deps)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}, nil
}

// Run serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	respond(c, http.StatusOK, "ok", nil)
}

func readyHandler(store Pinger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			fail(c, http.StatusServiceUnavailable, "storage not configured")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.Warn("readiness ping failed", zap.Error(err))
			fail(c, http.StatusServiceUnavailable, "storage unreachable")
			return
		}
		respond(c, http.StatusOK, "ready", nil)
	}
}
