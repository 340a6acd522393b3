package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "root",
		"DB_HOST":                "localhost",
		"DB_PORT":                "3306",
		"DB_NAME":                "seating",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "10",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMySQL, cfg.StoreBackend)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 40, cfg.Layout.GridSize)
	assert.Equal(t, 5, cfg.Layout.ActivationDistance)
	assert.Equal(t, 1, cfg.Layout.PeopleDefault)
	assert.Equal(t, 1000, cfg.Layout.MaxBlock)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 5, cfg.Sync.MaxTries)
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BCRYPT_COST", "ten")
	t.Setenv("STORE_BACKEND", "firebase")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "BCRYPT_COST")
	assert.Contains(t, err.Error(), "FIREBASE_DATABASE_URL")
}

func TestLayoutConfig_Validate(t *testing.T) {
	t.Setenv("GRID_SIZE", "20")
	t.Setenv("PEOPLE_MAX", "4")
	t.Setenv("PEOPLE_DEFAULT", "2")
	c := LoadLayoutConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 20, c.GridSize)

	c.PeopleDefault = 9
	assert.Error(t, c.Validate())

	c = LoadLayoutConfig()
	c.GridSize = 0
	assert.Error(t, c.Validate())

	t.Setenv("GRID_MAX_BLOCK", "0")
	c = LoadLayoutConfig()
	assert.ErrorContains(t, c.Validate(), "GRID_MAX_BLOCK")
}

func TestRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	c := LoadRateLimitConfig()
	assert.False(t, c.Enabled)
	assert.Equal(t, 5, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.Equal(t, "path_query", c.KeyStrategy)
}
