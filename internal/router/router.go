// Package router builds the echo instance: renderer, error handler,
// middleware stack and every route.
package router

import (
	"github.com/deppfellow/rsweb/internal/handler"
	"github.com/deppfellow/rsweb/internal/middleware"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/deppfellow/rsweb/internal/view"
	"github.com/labstack/echo/v4"
)

// NewRouter wires middlewares and handlers into a ready echo instance.
func NewRouter(s *server.Server, h *handler.Handlers, m *middleware.Middlewares) (*echo.Echo, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.Renderer = renderer
	router.HTTPErrorHandler = m.Global.GlobalErrorHandler

	// Order matters: the request id feeds the logger, the New Relic
	// transaction must exist before EnhanceTracing and the context logger.
	router.Use(
		m.Global.CORS(),
		m.Global.Secure(),
		middleware.RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Metrics.Record(),
		m.Global.RequestLogger(),
		m.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)
	registerQueryRoutes(router, h, m)

	return router, nil
}

// registerQueryRoutes mounts the console routes. Only POST runs commands,
// so only POST is rate limited.
func registerQueryRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	limit := m.RateLimit.Limit()

	for _, route := range handler.QueryRoutes {
		r.GET(route.Path, h.Query.Show(route))
		r.POST(route.Path, h.Query.Run(route), limit)
	}
}
