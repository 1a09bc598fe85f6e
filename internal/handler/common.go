package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/buildtrack/internal/middleware"
	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/repository"
)

var errUnauthorized = errors.New("unauthorized")

// actorOf returns the authenticated actor placed in the context by the
// JWT middleware.
func actorOf(c echo.Context) (model.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, errUnauthorized
	}
	return a, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

// writeError maps workflow and repository errors onto HTTP responses.
// Anything unrecognized is logged and reported as a bare 500.
func writeError(c echo.Context, err error) error {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, errUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, repository.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, repository.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, repository.ErrInsufficientStock):
		status, code = http.StatusBadRequest, "insufficient_stock"
	case errors.Is(err, repository.ErrBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	}
	if status == http.StatusInternalServerError {
		c.Logger().Errorj(log.JSON{
			"msg":        "request failed",
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"error":      err.Error(),
		})
		return c.JSON(status, echo.Map{"error": code})
	}
	return c.JSON(status, echo.Map{"error": code, "message": err.Error()})
}

// items wraps a list response.
func items[T any](v []T) echo.Map {
	if v == nil {
		v = []T{}
	}
	return echo.Map{"items": v}
}
