package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/access"
	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/workflow"
)

// RequestHandler exposes the worker request workflow.
type RequestHandler struct {
	Requests *workflow.RequestWorkflow
	Guard    *access.Guard
}

// NewRequestHandler panics if any dependency is nil.
func NewRequestHandler(requests *workflow.RequestWorkflow, guard *access.Guard) *RequestHandler {
	if requests == nil || guard == nil {
		panic("nil dependency passed to NewRequestHandler")
	}
	return &RequestHandler{Requests: requests, Guard: guard}
}

// Create handles POST /v1/projects/:id/requests with body
// {"worker_id": 3, "message": "..."}.
func (h *RequestHandler) Create(c echo.Context) error {
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
		Message  string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	wr, err := h.Requests.Create(c.Request().Context(), actor, workflow.CreateRequestInput{
		ProjectID: projectID,
		WorkerID:  body.WorkerID,
		Message:   body.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, wr)
}

// Respond handles POST /v1/requests/:id/respond with body
// {"decision": "accepted" | "rejected"}.
func (h *RequestHandler) Respond(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid request id")
	}
	var body struct {
		Decision string `json:"decision"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	wr, err := h.Requests.Respond(c.Request().Context(), actor, requestID, model.RequestStatus(body.Decision))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, wr)
}

// Incoming handles GET /v1/requests/incoming?status=pending.
func (h *RequestHandler) Incoming(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, err)
	}
	status := model.RequestStatus(c.QueryParam("status"))
	if status != "" && status != model.RequestPending && !status.IsDecision() {
		return badRequest(c, "status must be pending, accepted or rejected")
	}
	list, err := h.Requests.Incoming(c.Request().Context(), actor, status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}

// ListForProject handles GET /v1/projects/:id/requests.
func (h *RequestHandler) ListForProject(c echo.Context) error {
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
	list, err := h.Requests.ListForProject(ctx, projectID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}
