package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/buildtrack/internal/auth"
	"github.com/iliyamo/buildtrack/internal/config"
	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
)

const secret = "mw-secret"

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("/v1", JWTAuth(secret))
	g.GET("/whoami", func(c echo.Context) error {
		a, ok := ActorFrom(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"id": a.ID, "role": a.Role, "sub_role": a.SubRole, "key": userID(c)})
	})
	g.POST("/materials", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, RequireAction(policy.Default(), policy.ActionManageMaterials))
	return e
}

func bearer(t *testing.T, a model.Actor) string {
	t.Helper()
	tok, err := auth.NewAccessToken(secret, a, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func do(e *echo.Echo, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodGet, "/v1/whoami", bearer(t, model.Actor{ID: 7, Role: model.RoleWorker, SubRole: model.SubRolePlumber}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"worker","sub_role":"plumber","key":"7"}`, rec.Body.String())

	for name, authz := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(e, http.MethodGet, "/v1/whoami", authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
		})
	}
}

func TestRequireAction(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/v1/materials", bearer(t, model.Actor{ID: 1, Role: model.RoleAdmin}))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodPost, "/v1/materials", bearer(t, model.Actor{ID: 2, Role: model.RoleClient}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"forbidden"`)
}

func TestUserIDGuest(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "guest", userID(c))
	_, ok := ActorFrom(c)
	assert.False(t, ok)
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"items":[]}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok, "header length past end")
}

func TestCacheKeyChangesWithGeneration(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/materials?category=wood", nil), httptest.NewRecorder())
	c.SetPath("/v1/materials")

	k0 := cacheKeyFrom(cfg, "0", c)
	k1 := cacheKeyFrom(cfg, "1", c)
	assert.NotEqual(t, k0, k1)
	assert.Equal(t, k0, cacheKeyFrom(cfg, "0", c))
	assert.Contains(t, k1, "cache:g1:")
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	require.NoError(t, rc.Invalidate(t.Context()))

	e := echo.New()
	e.Use(rc.Middleware(), NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := do(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
