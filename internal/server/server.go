// Package server assembles the echo application: repositories, policy,
// guard, workflows, handlers and middleware.
package server

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/buildtrack/internal/access"
	"github.com/iliyamo/buildtrack/internal/config"
	"github.com/iliyamo/buildtrack/internal/handler"
	"github.com/iliyamo/buildtrack/internal/middleware"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/repository"
	"github.com/iliyamo/buildtrack/internal/router"
	"github.com/iliyamo/buildtrack/internal/workflow"
)

// Options configures New.  Redis and Events may be nil.
type Options struct {
	DB        *sql.DB
	Driver    string
	Isolation sql.IsolationLevel
	JWTSecret string
	Policy    *policy.Policy
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Events    workflow.EventPublisher
	LogLevel  log.Lvl
}

// New builds a ready-to-serve echo instance.
func New(o Options) *echo.Echo {
	store := repository.NewStore(o.DB, o.Driver, o.Isolation)
	catalog := middleware.NewResponseCache(o.Cache, o.Redis)

	deps := workflow.NewDeps(store, o.Policy)
	deps.Events = o.Events
	deps.Catalog = catalog

	guard := access.NewGuard(deps.Projects, deps.Assignments, o.Policy)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(o.LogLevel)
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			j := log.JSON{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				j["error"] = v.Error.Error()
			}
			c.Logger().Infoj(j)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Health:      handler.Health(o.DB),
		Projects:    handler.NewProjectHandler(deps.Projects, repository.NewMilestoneRepo(store), guard),
		Requests:    handler.NewRequestHandler(workflow.NewRequestWorkflow(deps), guard),
		Assignments: handler.NewAssignmentHandler(workflow.NewAssignmentWorkflow(deps), guard),
		Orders:      handler.NewOrderHandler(workflow.NewOrderWorkflow(deps), guard),
		Materials:   handler.NewMaterialHandler(deps.Materials, catalog),
		Workers:     handler.NewWorkerHandler(deps.Users),
	}, router.Middleware{
		JWTSecret:    o.JWTSecret,
		Policy:       o.Policy,
		RateLimit:    middleware.NewTokenBucket(o.RateLimit, o.Redis),
		CatalogCache: catalog.Middleware(),
	})
	return e
}
