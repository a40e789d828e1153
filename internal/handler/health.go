package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/rsweb/internal/middleware"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Pinger is anything the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the store and redis answer.
type HealthHandler struct {
	Handler
	store Pinger
}

func NewHealthHandler(s *server.Server, store Pinger) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		store:   store,
	}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Store       string                 `json:"store"`
	Checks      map[string]checkResult `json:"checks"`
}

// CheckHealth returns 200 when every enabled probe passes and 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: cfg.Primary.Env,
		Store:       cfg.Store.Driver,
		Checks:      make(map[string]checkResult),
	}

	healthy := true

	if cfg.Observability.HasCheck("store") {
		if !h.probe(c.Request().Context(), &logger, response.Checks, "store", h.store.Ping) {
			healthy = false
		}
	}

	if h.server.Redis != nil && cfg.Observability.HasCheck("redis") {
		ping := func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() }
		if !h.probe(c.Request().Context(), &logger, response.Checks, "redis", ping) {
			healthy = false
		}
	}

	if !healthy {
		response.Status = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordEvent(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// probe runs one dependency check bounded by the configured timeout.
func (h *HealthHandler) probe(
	parent context.Context,
	logger *zerolog.Logger,
	checks map[string]checkResult,
	name string,
	ping func(context.Context) error,
) bool {
	ctx, cancel := context.WithTimeout(parent, h.server.Config.Observability.HealthChecks.Timeout)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		checks[name] = checkResult{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}

		logger.Error().
			Err(err).
			Str("check", name).
			Dur("response_time", elapsed).
			Msg("health check failed")

		h.recordEvent(map[string]any{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return false
	}

	checks[name] = checkResult{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
	return true
}

func (h *HealthHandler) recordEvent(attrs map[string]any) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
