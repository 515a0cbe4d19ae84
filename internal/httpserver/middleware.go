package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const sessionCtxKey = "session"

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// sessionMiddleware authenticates the session cookie, falling back to a bearer token.
func sessionMiddleware(sessions sessionService, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie)
		if err != nil || token == "" {
			token = bearerToken(c)
		}
		if token == "" {
			fail(c, http.StatusUnauthorized, "session required")
			return
		}
		sess, err := sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				fail(c, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			fail(c, http.StatusInternalServerError, "internal server error")
			return
		}
		c.Set(sessionCtxKey, *sess)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			fail(c, http.StatusUnauthorized, "session required")
			return
		}
		if !sess.IsAdmin() {
			fail(c, http.StatusForbidden, "admin privileges required")
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) (domain.Session, bool) {
	v, ok := c.Get(sessionCtxKey)
	if !ok {
		return domain.Session{}, false
	}
	sess, ok := v.(domain.Session)
	return sess, ok
}
