package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	analyticssvc "storefront/internal/service/analytics"
)

// salesAnalytics needs no session.
func (a *api) salesAnalytics(c *gin.Context) {
	report, err := a.deps.Analytics.Sales(c.Request.Context(), analyticssvc.Query{
		Kind:     c.Query("type"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Range:    c.Query("range"),
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "sales analytics", report)
}
