package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/auth"
)

// JWTAuth validates the Bearer access token and stores the decoded actor
// in the request context.  Handlers read it back with ActorFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(h, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing bearer token"})
			}
			actor, err := auth.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid token"})
			}
			setActor(c, actor)
			return next(c)
		}
	}
}
