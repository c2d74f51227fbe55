// Package api binds the resource services to HTTP routes. Handlers are
// thin: identity and breadcrumb extraction, parameter parsing, service
// call, serialization.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/agile-crafts-people/impact-profile-api/pkg/auth"
	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
	"github.com/agile-crafts-people/impact-profile-api/pkg/observability/logger"
	"github.com/agile-crafts-people/impact-profile-api/pkg/repository/document"
	"github.com/agile-crafts-people/impact-profile-api/pkg/resource"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// resourceHandlers serves one resource's CRUD endpoints.
type resourceHandlers struct {
	svc    *resource.Service
	tokens *auth.TokenService
	logger logger.Logger
}

// RegisterResourceRoutes mounts the CRUD endpoints for one resource
// under group, e.g. /api/platform.
func RegisterResourceRoutes(group *gin.RouterGroup, name string, svc *resource.Service, tokens *auth.TokenService, log logger.Logger) {
	h := &resourceHandlers{
		svc:    svc,
		tokens: tokens,
		logger: log,
	}

	g := group.Group("/" + name)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
}

// create handles POST /api/<resource>. The created document is re-read
// so the response carries the store-assigned id and stamped breadcrumbs.
func (h *resourceHandlers) create(c *gin.Context) {
	identity, err := h.tokens.CreateToken(c.Request)
	if err != nil {
		controller.Error(c, err)
		return
	}
	breadcrumb := auth.CreateBreadcrumb(c.Request, identity)

	data, err := decodeBody(c)
	if err != nil {
		controller.Error(c, err)
		return
	}

	id, err := h.svc.Create(c.Request.Context(), data, identity, breadcrumb)
	if err != nil {
		controller.Error(c, err)
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), id, identity)
	if err != nil {
		controller.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// list handles GET /api/<resource> with infinite-scroll query parameters.
func (h *resourceHandlers) list(c *gin.Context) {
	identity, err := h.tokens.CreateToken(c.Request)
	if err != nil {
		controller.Error(c, err)
		return
	}

	params, err := parseScrollParams(c)
	if err != nil {
		controller.Error(c, err)
		return
	}

	page, err := h.svc.List(c.Request.Context(), params, identity)
	if err != nil {
		controller.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// get handles GET /api/<resource>/:id.
func (h *resourceHandlers) get(c *gin.Context) {
	identity, err := h.tokens.CreateToken(c.Request)
	if err != nil {
		controller.Error(c, err)
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		controller.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// update handles PATCH /api/<resource>/:id.
func (h *resourceHandlers) update(c *gin.Context) {
	identity, err := h.tokens.CreateToken(c.Request)
	if err != nil {
		controller.Error(c, err)
		return
	}
	breadcrumb := auth.CreateBreadcrumb(c.Request, identity)

	data, err := decodeBody(c)
	if err != nil {
		controller.Error(c, err)
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), data, identity, breadcrumb)
	if err != nil {
		controller.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// decodeBody parses the request body as a JSON object. An empty body is
// treated as an empty object.
func decodeBody(c *gin.Context) (bson.M, error) {
	data := bson.M{}
	if c.Request.Body == nil {
		return data, nil
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return bson.M{}, nil
		}
		return nil, controller.NewValidationError("request body must be a JSON object", nil)
	}
	return data, nil
}

// parseScrollParams extracts list query parameters, applying the
// documented defaults for absent values.
func parseScrollParams(c *gin.Context) (document.ScrollParams, error) {
	params := document.ScrollParams{
		Name:    c.Query("name"),
		AfterID: c.Query("after_id"),
		Limit:   document.DefaultLimit,
		SortBy:  c.DefaultQuery("sort_by", document.DefaultSortBy),
		Order:   document.SortOrder(c.DefaultQuery("order", string(document.SortAsc))),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return document.ScrollParams{}, controller.NewValidationError(
				"limit must be an integer",
				map[string]interface{}{"parameter": "limit"},
			)
		}
		params.Limit = limit
	}

	return params, nil
}
