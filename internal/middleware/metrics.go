package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/deppfellow/rsweb/internal/errs"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware feeds the prometheus request collectors.
type MetricsMiddleware struct {
	server *server.Server
}

func NewMetricsMiddleware(s *server.Server) *MetricsMiddleware {
	return &MetricsMiddleware{server: s}
}

// Record counts every request by route template and final status.
func (m *MetricsMiddleware) Record() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.server.Metrics.HTTPRequests.
				WithLabelValues(method, route, strconv.Itoa(statusOf(c, err))).
				Inc()
			m.server.Metrics.HTTPDuration.
				WithLabelValues(method, route).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// statusOf is the status the global error handler will write for err.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}

	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}

	return http.StatusInternalServerError
}
