package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/buildtrack/internal/model"
)

const actorKey = "actor"

func setActor(c echo.Context, a model.Actor) { c.Set(actorKey, a) }

// ActorFrom returns the actor stored by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(actorKey).(model.Actor)
	return a, ok && a.ID != 0
}

// userID is the actor id as a string, or "guest" for unauthenticated
// requests.  Rate limit keys use it.
func userID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.ID, 10)
	}
	return "guest"
}
