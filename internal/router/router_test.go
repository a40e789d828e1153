package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deppfellow/rsweb/internal/config"
	"github.com/deppfellow/rsweb/internal/handler"
	"github.com/deppfellow/rsweb/internal/middleware"
	"github.com/deppfellow/rsweb/internal/repository"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/deppfellow/rsweb/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, mutate func(*config.Config)) *echo.Echo {
	t.Helper()

	cfg := config.Default()
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "scenes.db")
	if mutate != nil {
		mutate(cfg)
	}

	logger := zerolog.Nop()
	s, err := server.New(context.Background(), cfg, &logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	repos, err := repository.NewRepositories(s)
	require.NoError(t, err)

	services, err := service.NewServices(s, repos)
	require.NoError(t, err)

	r, err := NewRouter(s, handler.NewHandlers(s, services), middleware.NewMiddlewares(s))
	require.NoError(t, err)
	return r
}

func serve(r *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_QueryRoutes(t *testing.T) {
	r := setupRouter(t, nil)

	for _, route := range handler.QueryRoutes {
		rec := serve(r, httptest.NewRequest(http.MethodGet, route.Path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, route.Path)
		assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

		req := httptest.NewRequest(http.MethodPost, route.Path, strings.NewReader("console=objects"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec = serve(r, req)
		assert.Equal(t, http.StatusOK, rec.Code, route.Path)
		assert.Contains(t, rec.Body.String(), "no objects")
	}
}

func TestRouter_SystemRoutes(t *testing.T) {
	r := setupRouter(t, nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	serve(r, httptest.NewRequest(http.MethodGet, "/scenes", nil))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rsweb_http_requests_total{method="GET",route="/scenes",status="200"} 1`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := setupRouter(t, nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestRouter_PostIsRateLimited(t *testing.T) {
	r := setupRouter(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = 1
	})

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("objects"))
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	// GET stays unlimited.
	for range 3 {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/query", nil)).Code)
	}
}
