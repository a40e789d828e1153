package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()

	a.Commands.WithLabelValues("list_scenes").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Commands.WithLabelValues("list_scenes")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Commands.WithLabelValues("list_scenes")))
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.HTTPRequests.WithLabelValues("GET", "/scenes", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rsweb_http_requests_total{method="GET",route="/scenes",status="200"} 1`)
}
