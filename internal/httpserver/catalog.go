package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	catalogsvc "storefront/internal/service/catalog"
)

type stockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

type ratingRequest struct {
	Value int `json:"value" binding:"required"`
}

func (a *api) kindParam(c *gin.Context) (domain.Kind, bool) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		a.writeError(c, err)
		return "", false
	}
	return kind, true
}

func (a *api) listCatalog(c *gin.Context) {
	kind, ok := a.kindParam(c)
	if !ok {
		return
	}
	filter := domain.CatalogFilter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
	}
	filter.OfferOnly, _ = strconv.ParseBool(c.Query("offer"))
	filter.BestSeller, _ = strconv.ParseBool(c.Query("bestSeller"))
	items, err := a.deps.Catalog.List(c.Request.Context(), kind, filter)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "catalog fetched", items)
}

func (a *api) getCatalogItem(c *gin.Context) {
	kind, ok := a.kindParam(c)
	if !ok {
		return
	}
	item, err := a.deps.Catalog.Get(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "item fetched", item)
}

func (a *api) addReview(c *gin.Context) {
	kind, ok := a.kindParam(c)
	if !ok {
		return
	}
	sess, _ := currentSession(c)
	var in catalogsvc.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := a.deps.Catalog.AddReview(c.Request.Context(), kind, c.Param("id"), sess.UserID, in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "review added", item)
}

func (a *api) addRating(c *gin.Context) {
	kind, ok := a.kindParam(c)
	if !ok {
		return
	}
	sess, _ := currentSession(c)
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "value required")
		return
	}
	item, err := a.deps.Catalog.AddRating(c.Request.Context(), kind, c.Param("id"), sess.UserID, req.Value)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "rating saved", item)
}

func (a *api) upsertCatalogItem(c *gin.Context) {
	kind, ok := a.kindParam(c)
	if !ok {
		return
	}
	var in catalogsvc.UpsertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := a.deps.Catalog.Upsert(c.Request.Context(), kind, in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "item saved", item)
}

func (a *api) setStock(c *gin.Context) {
	kind, ok := a.kindParam(c)
	if !ok {
		return
	}
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "stock required")
		return
	}
	item, err := a.deps.Catalog.SetStock(c.Request.Context(), kind, c.Param("id"), *req.Stock)
	if err != nil {
		a.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "stock updated", item)
}
