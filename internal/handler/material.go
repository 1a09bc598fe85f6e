package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// CatalogInvalidator drops cached catalog responses.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// MaterialHandler serves the material catalog.
type MaterialHandler struct {
	Materials *repository.MaterialRepo
	Catalog   CatalogInvalidator // optional
}

// NewMaterialHandler panics if materials is nil.
func NewMaterialHandler(materials *repository.MaterialRepo, catalog CatalogInvalidator) *MaterialHandler {
	if materials == nil {
		panic("nil repository passed to NewMaterialHandler")
	}
	return &MaterialHandler{Materials: materials, Catalog: catalog}
}

// List handles GET /v1/materials.  Responses are cached; orders and new
// materials invalidate the cache.
func (h *MaterialHandler) List(c echo.Context) error {
	list, err := h.Materials.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// Create handles POST /v1/materials (materials:manage).
func (h *MaterialHandler) Create(c echo.Context) error {
	var body struct {
		Name           string `json:"name"`
		Unit           string `json:"unit"`
		UnitPriceCents int64  `json:"unit_price_cents"`
		StockQuantity  int64  `json:"stock_quantity"`
		Category       string `json:"category"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	m := model.Material{
		Name:           strings.TrimSpace(body.Name),
		Unit:           strings.TrimSpace(body.Unit),
		UnitPriceCents: body.UnitPriceCents,
		StockQuantity:  body.StockQuantity,
		Category:       strings.TrimSpace(body.Category),
	}
	switch {
	case m.Name == "" || m.Unit == "":
		return badRequest(c, "name and unit are required")
	case m.UnitPriceCents < 0:
		return badRequest(c, "unit_price_cents must not be negative")
	case m.StockQuantity < 0:
		return badRequest(c, "stock_quantity must not be negative")
	}

	ctx := c.Request().Context()
	if err := h.Materials.Create(ctx, &m); err != nil {
		return writeError(c, err)
	}
	if h.Catalog != nil {
		if err := h.Catalog.Invalidate(ctx); err != nil {
			c.Logger().Warnf("catalog cache invalidation failed: %v", err)
		}
	}
	return c.JSON(http.StatusCreated, m)
}
