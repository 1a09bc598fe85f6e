package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// WorkerHandler lets clients and engineers browse the worker pool.
type WorkerHandler struct {
	Users *repository.UserRepo
}

func NewWorkerHandler(users *repository.UserRepo) *WorkerHandler {
	if users == nil {
		panic("nil repository passed to NewWorkerHandler")
	}
	return &WorkerHandler{Users: users}
}

// Browse handles GET /v1/workers?sub_role=painter&available=true.
func (h *WorkerHandler) Browse(c echo.Context) error {
	var f repository.WorkerFilter
	if v := c.QueryParam("sub_role"); v != "" {
		f.SubRole = model.SubRole(v)
		if !f.SubRole.Valid() {
			return badRequest(c, "unknown sub_role")
		}
	}
	if v := c.QueryParam("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "available must be true or false")
		}
		f.Available = &b
	}
	list, err := h.Users.ListWorkers(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items(list))
}
