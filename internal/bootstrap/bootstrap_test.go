package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/enrollment/internal/config"
	"github.com/yigit/enrollment/internal/pkg/cache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func sqliteConfig(t *testing.T, cacheDriver string) *config.Config {
	t.Helper()
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite_path: `+filepath.Join(t.TempDir(), "app.db")+`
cache:
  driver: `+cacheDriver+`
jwt:
  secret: test-secret
logging:
  level: error
`)
	cfg, _, err := LoadConfigAndSetupLogger(path)
	require.NoError(t, err)
	return cfg
}

func TestWiringServesRequests(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t, config.CacheMemory)
	lgr := zerolog.Nop()

	gw, err := OpenGateway(ctx, cfg, lgr)
	require.NoError(t, err)
	deps := BuildDependencies(cfg, gw, OpenCache(ctx, cfg, lgr), lgr)
	t.Cleanup(func() { _ = deps.Close() })

	router := SetupRouter(cfg, deps, lgr)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/offerings", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	token, _, err := deps.JWTService.GenerateToken("admin", "ADMINISTRATOR")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/offerings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpenCacheDrivers(t *testing.T) {
	ctx := context.Background()
	lgr := zerolog.Nop()

	cfg := sqliteConfig(t, config.CacheNone)
	assert.IsType(t, cache.Disabled{}, OpenCache(ctx, cfg, lgr))

	cfg.Cache.Driver = config.CacheMemory
	assert.IsType(t, &cache.MemoryStore{}, OpenCache(ctx, cfg, lgr))

	mr := miniredis.RunT(t)
	cfg.Cache.Driver = config.CacheRedis
	cfg.Cache.RedisAddr = mr.Addr()
	store := OpenCache(ctx, cfg, lgr)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &cache.RedisStore{}, store)

	// An unreachable Redis still yields a store, failures degrade to misses.
	cfg.Cache.RedisAddr = "127.0.0.1:1"
	down := OpenCache(ctx, cfg, lgr)
	t.Cleanup(func() { _ = down.Close() })
	assert.IsType(t, &cache.RedisStore{}, down)
}

func TestOpenGatewayRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t, config.CacheNone)
	cfg.Database.Driver = "oracle"
	_, err := OpenGateway(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
