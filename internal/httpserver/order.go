package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ordersvc "storefront/internal/service/order"
)

func (a *api) placeOrder(c *gin.Context) {
	sess, _ := currentSession(c)
	var in ordersvc.PlaceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	o, err := a.deps.Orders.PlaceOrder(c.Request.Context(), sess, in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "order placed", o)
}

func (a *api) listMyOrders(c *gin.Context) {
	sess, _ := currentSession(c)
	orders, err := a.deps.Orders.ListForUser(c.Request.Context(), sess)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "orders fetched", orders)
}

func (a *api) getOrder(c *gin.Context) {
	sess, _ := currentSession(c)
	o, err := a.deps.Orders.Get(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "order fetched", o)
}

func (a *api) cancelOrder(c *gin.Context) {
	sess, _ := currentSession(c)
	o, err := a.deps.Orders.Cancel(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "order cancelled", o)
}

func (a *api) listAllOrders(c *gin.Context) {
	orders, err := a.deps.Orders.ListAll(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "orders fetched", orders)
}

func (a *api) updateOrder(c *gin.Context) {
	var in ordersvc.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	o, err := a.deps.Orders.AdminUpdate(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "order updated", o)
}

func (a *api) deleteOrder(c *gin.Context) {
	if err := a.deps.Orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "order deleted", nil)
}
