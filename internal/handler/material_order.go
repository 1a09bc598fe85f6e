package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/access"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/report"
	"github.com/iliyamo/buildtrack/internal/workflow"
)

// OrderHandler exposes material ordering and the project's order history.
type OrderHandler struct {
	Orders *workflow.OrderWorkflow
	Guard  *access.Guard
}

// NewOrderHandler panics if any dependency is nil.
func NewOrderHandler(orders *workflow.OrderWorkflow, guard *access.Guard) *OrderHandler {
	if orders == nil || guard == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders, Guard: guard}
}

// Order handles POST /v1/projects/:id/orders with body
// {"material_id": 2, "quantity": 8}.  Insufficient stock is a 400 with
// error code insufficient_stock; an unknown or missing material is a 404.
func (h *OrderHandler) Order(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	var body struct {
		MaterialID uint64 `json:"material_id"`
		Quantity   int64  `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	o, err := h.Orders.Order(c.Request().Context(), actor, workflow.OrderInput{
		ProjectID:  projectID,
		MaterialID: body.MaterialID,
		Quantity:   body.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// List handles GET /v1/projects/:id/materials.
func (h *OrderHandler) List(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	ctx := c.Request().Context()
	if _, err := h.Guard.AuthorizeProject(ctx, actor, projectID, policy.AccessRead); err != nil {
		return writeError(c, err)
	}
	list, err := h.Orders.ListForProject(ctx, projectID)
	if err != nil {
		return writeError(c, err)
	}
	var total int64
	for _, o := range list {
		total += o.TotalCostCents
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list, "total_cost_cents": total})
}

// Export handles GET /v1/projects/:id/materials/export and returns the
// order history as an xlsx attachment.
func (h *OrderHandler) Export(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	ctx := c.Request().Context()
	p, err := h.Guard.AuthorizeProject(ctx, actor, projectID, policy.AccessRead)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.Orders.ListForProject(ctx, projectID)
	if err != nil {
		return writeError(c, err)
	}
	now := time.Now()
	buf, err := report.BillOfMaterials(p, list, now)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", report.FileName(p, now)))
	return c.Blob(http.StatusOK, report.ContentTypeXLSX, buf.Bytes())
}
