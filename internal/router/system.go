package router

import (
	"github.com/deppfellow/rsweb/internal/handler"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/labstack/echo/v4"
)

func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	r.Static("/static", "static")

	r.GET("/_get_queries", h.Queries.ServeQueries())
}
