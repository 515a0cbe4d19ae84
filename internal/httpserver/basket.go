package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

// basketRequest accepts both "productId" and "product" for the item id.
type basketRequest struct {
	ProductID string `json:"productId"`
	Product   string `json:"product"`
	Model     string `json:"model"`
}

func (r basketRequest) itemID() string {
	if id := strings.TrimSpace(r.ProductID); id != "" {
		return id
	}
	return strings.TrimSpace(r.Product)
}

func (a *api) addToBasket(basket domain.BasketType) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := currentSession(c)
		var req basketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
		b, err := a.deps.Baskets.AddItem(c.Request.Context(), sess.UserID, basket, req.itemID(), req.Model)
		if err != nil {
			a.writeError(c, err)
			return
		}
		respond(c, http.StatusOK, "added to "+string(basket), b)
	}
}

func (a *api) removeFromBasket(basket domain.BasketType) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := currentSession(c)
		var req basketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
		b, err := a.deps.Baskets.RemoveItem(c.Request.Context(), sess.UserID, basket, req.itemID(), req.Model)
		if err != nil {
			a.writeError(c, err)
			return
		}
		respond(c, http.StatusOK, "removed from "+string(basket), b)
	}
}

// getBasket is limited to the basket owner and admins.
func (a *api) getBasket(basket domain.BasketType) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := currentSession(c)
		userID := c.Param("userId")
		if userID != sess.UserID && !sess.IsAdmin() {
			a.writeError(c, domain.ErrForbidden)
			return
		}
		b, err := a.deps.Baskets.Get(c.Request.Context(), userID, basket)
		if err != nil {
			a.writeError(c, err)
			return
		}
		respond(c, http.StatusOK, string(basket)+" fetched", b)
	}
}
