package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/policy"
)

// RequireAction rejects requests whose actor the policy table does not
// allow to perform action.  It must run after JWTAuth.
func RequireAction(p *policy.Policy, action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing actor"})
			}
			if !p.CanPerform(actor, action) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": string(action) + " not permitted"})
			}
			return next(c)
		}
	}
}
