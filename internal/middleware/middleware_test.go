package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/config"
	"github.com/iliyamo/seating-plan/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user_id": UserID(c), "role": Role(c)})
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	owner, err := utils.NewAccessToken(secret, "u-1", "OWNER", 5)
	require.NoError(t, err)
	customer, err := utils.NewAccessToken(secret, "u-2", "CUSTOMER", 5)
	require.NoError(t, err)
	forged, err := utils.NewAccessToken("other", "u-1", "OWNER", 5)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/owner", whoami, JWTAuth(secret), RequireRole("OWNER"))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/owner", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/owner", forged.Token).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/owner", customer.Token).Code)

	rec := serve(e, http.MethodGet, "/owner", owner.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"u-1","role":"OWNER"}`, rec.Body.String())
}

func TestOptionalJWT(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, "u-3", "CUSTOMER", 5)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/maybe", whoami, OptionalJWT(secret))

	rec := serve(e, http.MethodGet, "/maybe", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"","role":""}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/maybe", tok.Token)
	assert.JSONEq(t, `{"user_id":"u-3","role":"CUSTOMER"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/maybe", "garbage").Code)
}

func newRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestTokenBucket(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := echo.New()
	e.GET("/limited", whoami, NewTokenBucket(cfg, newRedis(t), zap.NewNop()))

	first := serve(e, http.MethodGet, "/limited", "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/limited", "").Code)

	blocked := serve(e, http.MethodGet, "/limited", "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/open", whoami, NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, nil))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/open", "").Code)
}

func TestRedisCache(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "path_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
	calls := 0
	e := echo.New()
	e.GET("/v1/venues/:venue_id/layout", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"venue": c.Param("venue_id")})
	}, NewRedisCache(cfg, newRedis(t), zap.NewNop()))

	rec := serve(e, http.MethodGet, "/v1/venues/a/layout", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = serve(e, http.MethodGet, "/v1/venues/a/layout", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"venue":"a"}`, rec.Body.String())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/v1/venues/b/layout", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"venue":"b"}`, rec.Body.String())
	assert.Equal(t, 2, calls)
}
