package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deppfellow/rsweb/internal/config"
	"github.com/deppfellow/rsweb/internal/errs"
	"github.com/deppfellow/rsweb/internal/metrics"
	"github.com/deppfellow/rsweb/internal/middleware"
	"github.com/deppfellow/rsweb/internal/model"
	"github.com/deppfellow/rsweb/internal/repository"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/deppfellow/rsweb/internal/service"
	"github.com/deppfellow/rsweb/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	echo   *echo.Echo
	server *server.Server
	store  *repository.MemoryStore
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := zerolog.Nop()
	cfg := config.Default()
	cfg.Queries.Path = filepath.Join(t.TempDir(), "queries.json")

	s := &server.Server{Config: cfg, Logger: &logger, Metrics: metrics.New()}

	store := repository.NewMemoryStore()
	for ts := int64(1); ts <= 5; ts++ {
		store.AddScene(model.Scene{
			Timestamp: ts,
			Image:     []byte{0x89, 'P', 'N', 'G'},
			Objects:   []model.ObjectHypothesis{{ID: fmt.Sprintf("hyp-%d", ts), Timestamp: ts}},
		})
	}
	store.AddObject(
		model.PersistentObject{ID: 3, Label: "mug"},
		model.ObjectInstance{ObjectID: 3, Timestamp: 2, HypothesisID: "hyp-2"},
	)

	services := &service.Services{Scenes: service.NewSceneService(s, store)}
	h := NewHandlers(s, services)

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler
	for _, route := range QueryRoutes {
		e.GET(route.Path, h.Query.Show(route))
		e.POST(route.Path, h.Query.Run(route))
	}
	e.GET("/_get_queries", h.Queries.ServeQueries())
	e.GET("/status", h.Health.CheckHealth)

	return &testApp{echo: e, server: s, store: store}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func postForm(target, console string) *http.Request {
	form := url.Values{ConsoleField: {console}}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func postRaw(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestShow_ObjStoreIsPaginated(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/scenes?page=2&per_page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Scene 3")
	assert.Contains(t, body, "Scene 4")
	assert.NotContains(t, body, "Scene 5")
	assert.Contains(t, body, "pagination-page-info")
	assert.Contains(t, body, `action="/scenes"`)
}

func TestShow_NeverClassifies(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/query", "/prolog_query"} {
		rec := app.do(httptest.NewRequest(http.MethodGet, path+"?console=objects", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Query the object store")
	}

	assert.Zero(t, app.store.Calls("PersistentObjects"))
	assert.Zero(t, app.store.Calls("Timestamps"))
	assert.Zero(t, testutil.CollectAndCount(app.server.Metrics.Commands))
}

func TestRun_ObjectInstanceLookup(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(postForm("/query", "(3)"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Instances of object 3")
	assert.Contains(t, rec.Body.String(), "hyp-2")
	assert.Equal(t, 1, app.store.Calls("ObjectInstances"))

	rec = app.do(postForm("/query", "(7)"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no instances of object 7")

	assert.Equal(t, float64(2), testutil.ToFloat64(app.server.Metrics.Commands.WithLabelValues("object_instance_lookup")))
}

func TestRun_ListObjectsFromRawBody(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(postRaw("/prolog_query", "objects"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Persistent objects")
	assert.Contains(t, rec.Body.String(), "mug")
}

func TestRun_FormWithoutConsoleFallsBackToBody(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("objects"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := app.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Persistent objects")
}

func TestRun_FormMediaTypeIsCaseInsensitive(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("console=objects"))
	req.Header.Set(echo.HeaderContentType, "Application/X-WWW-Form-Urlencoded; charset=UTF-8")

	rec := app.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Persistent objects")
}

func TestRun_MultipartForm(t *testing.T) {
	for _, contentType := range []string{"multipart/form-data", "Multipart/Form-Data"} {
		t.Run(contentType, func(t *testing.T) {
			app := setupTestApp(t)

			var body bytes.Buffer
			w := multipart.NewWriter(&body)
			require.NoError(t, w.WriteField(ConsoleField, "(3)"))
			require.NoError(t, w.Close())

			req := httptest.NewRequest(http.MethodPost, "/query", &body)
			req.Header.Set(echo.HeaderContentType, contentType+"; boundary="+w.Boundary())

			rec := app.do(req)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Instances of object 3")
		})
	}
}

func TestRun_LongPayloadStillLooksUp(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(postRaw("/query", strings.Repeat("x", 5000)+"(3)"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Instances of object 3")
}

func TestRun_BodyTooLarge(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(postRaw("/query", strings.Repeat("x", maxQueryBody+1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large", decodeError(t, rec).Message)
	assert.Zero(t, testutil.CollectAndCount(app.server.Metrics.Commands))
}

func TestRun_ListScenes(t *testing.T) {
	t.Run("without pagination args lists everything", func(t *testing.T) {
		app := setupTestApp(t)

		rec := app.do(postForm("/", "scenes"))
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		for ts := 1; ts <= 5; ts++ {
			assert.Contains(t, body, fmt.Sprintf("Scene %d", ts))
		}
		assert.NotContains(t, body, "pagination-page-info")
		assert.Equal(t, 5, app.store.Calls("SceneImage"))
	})

	t.Run("with pagination args applies the window", func(t *testing.T) {
		app := setupTestApp(t)

		rec := app.do(postForm("/?page=2&per_page=2", "scenes"))
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, "Scene 3")
		assert.Contains(t, body, "Scene 4")
		assert.NotContains(t, body, "Scene 1<")
		assert.NotContains(t, body, "Scene 5")
		assert.Contains(t, body, "pagination-page-info")
		assert.Equal(t, 2, app.store.Calls("SceneImage"))
	})
}

func TestRun_Unrecognized(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(postForm("/query", "drop table scenes"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "UNRECOGNIZED_COMMAND", body.Code)
	assert.True(t, body.Override)
	assert.Equal(t, float64(1), testutil.ToFloat64(app.server.Metrics.Commands.WithLabelValues("unrecognized")))
}

func TestRun_StoreFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(t)
			app.store.Err = tt.err

			rec := app.do(postForm("/query", "objects"))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, decodeError(t, rec).Status)
		})
	}
}

func TestServeQueries(t *testing.T) {
	t.Run("returns the file verbatim", func(t *testing.T) {
		app := setupTestApp(t)
		content := "[\n  {\"label\": \"objects\", \"query\": \"objects\"}\n]\n"
		require.NoError(t, os.WriteFile(app.server.Config.Queries.Path, []byte(content), 0o600))

		rec := app.do(httptest.NewRequest(http.MethodGet, "/_get_queries", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, content, rec.Body.String())
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
		assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))
	})

	t.Run("missing file", func(t *testing.T) {
		app := setupTestApp(t)

		rec := app.do(httptest.NewRequest(http.MethodGet, "/_get_queries", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		app := setupTestApp(t)
		require.NoError(t, os.WriteFile(app.server.Config.Queries.Path, []byte("[{"), 0o600))

		rec := app.do(httptest.NewRequest(http.MethodGet, "/_get_queries", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCheckHealth(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["store"].Status)
	assert.NotContains(t, body.Checks, "redis")

	app.store.Err = errors.New("store down")
	rec = app.do(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "store down", body.Checks["store"].Error)
}
