package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/access"
	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/workflow"
)

// AssignmentHandler exposes direct worker assignment.
type AssignmentHandler struct {
	Assignments *workflow.AssignmentWorkflow
	Guard       *access.Guard
}

// NewAssignmentHandler panics if any dependency is nil.
func NewAssignmentHandler(assignments *workflow.AssignmentWorkflow, guard *access.Guard) *AssignmentHandler {
	if assignments == nil || guard == nil {
		panic("nil dependency passed to NewAssignmentHandler")
	}
	return &AssignmentHandler{Assignments: assignments, Guard: guard}
}

// Assign handles POST /v1/projects/:id/workers with body
// {"worker_id": 4, "role": "painter"}; role is optional.
func (h *AssignmentHandler) Assign(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	var body struct {
		WorkerID uint64 `json:"worker_id"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	a, err := h.Assignments.Assign(c.Request().Context(), actor, workflow.AssignInput{
		ProjectID: projectID,
		WorkerID:  body.WorkerID,
		Role:      model.SubRole(body.Role),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// List handles GET /v1/projects/:id/workers.
func (h *AssignmentHandler) List(c echo.Context) error {
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
	list, err := h.Assignments.ListForProject(ctx, projectID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}
