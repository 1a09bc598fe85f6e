// Package router maps HTTP routes onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/handler"
	"github.com/iliyamo/buildtrack/internal/middleware"
	"github.com/iliyamo/buildtrack/internal/policy"
)

// Handlers groups every handler the API exposes.
type Handlers struct {
	Health      echo.HandlerFunc
	Projects    *handler.ProjectHandler
	Requests    *handler.RequestHandler
	Assignments *handler.AssignmentHandler
	Orders      *handler.OrderHandler
	Materials   *handler.MaterialHandler
	Workers     *handler.WorkerHandler
}

// Middleware is the cross-cutting middleware the routes need.  RateLimit
// guards workflow mutations; CatalogCache wraps the catalog read.
type Middleware struct {
	JWTSecret    string
	Policy       *policy.Policy
	RateLimit    echo.MiddlewareFunc
	CatalogCache echo.MiddlewareFunc
}

// Register wires all routes.  /healthz is public; everything under /v1
// requires a bearer token.
func Register(e *echo.Echo, h Handlers, m Middleware) {
	e.GET("/healthz", h.Health)

	v1 := e.Group("/v1", middleware.JWTAuth(m.JWTSecret))
	limited := v1.Group("", orPass(m.RateLimit))
	can := func(a policy.Action) echo.MiddlewareFunc { return middleware.RequireAction(m.Policy, a) }

	// projects
	v1.GET("/projects", h.Projects.Mine)
	v1.POST("/projects", h.Projects.Create, can(policy.ActionCreateProject))
	v1.GET("/projects/:id", h.Projects.Get)
	v1.GET("/projects/:id/milestones", h.Projects.ListMilestones)
	v1.POST("/projects/:id/milestones", h.Projects.CreateMilestone)

	// worker requests
	limited.POST("/projects/:id/requests", h.Requests.Create)
	v1.GET("/projects/:id/requests", h.Requests.ListForProject)
	v1.GET("/requests/incoming", h.Requests.Incoming)
	limited.POST("/requests/:id/respond", h.Requests.Respond)

	// assignments
	limited.POST("/projects/:id/workers", h.Assignments.Assign)
	v1.GET("/projects/:id/workers", h.Assignments.List)

	// material orders
	limited.POST("/projects/:id/orders", h.Orders.Order)
	v1.GET("/projects/:id/materials", h.Orders.List)
	v1.GET("/projects/:id/materials/export", h.Orders.Export)

	// catalog and worker pool
	v1.GET("/materials", h.Materials.List, orPass(m.CatalogCache))
	v1.POST("/materials", h.Materials.Create, can(policy.ActionManageMaterials))
	v1.GET("/workers", h.Workers.Browse, can(policy.ActionBrowseWorkers))
}

func orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}
