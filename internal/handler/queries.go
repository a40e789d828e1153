package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/deppfellow/rsweb/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// QueriesHandler serves the canned console queries.
type QueriesHandler struct {
	Handler
}

func NewQueriesHandler(s *server.Server) *QueriesHandler {
	return &QueriesHandler{
		Handler: NewHandler(s),
	}
}

// EmptyRequest is the payload of endpoints that read nothing from the request.
type EmptyRequest struct{}

func (*EmptyRequest) Bind(echo.Context) error { return nil }

func (*EmptyRequest) Validate() error { return nil }

func newEmptyRequest() *EmptyRequest {
	return &EmptyRequest{}
}

// ServeQueries returns the configured JSON file byte for byte.
func (h *QueriesHandler) ServeQueries() echo.HandlerFunc {
	return HandleFile(h.Handler, h.readQueries, http.StatusOK, newEmptyRequest, "", echo.MIMEApplicationJSON)
}

func (h *QueriesHandler) readQueries(c echo.Context, _ *EmptyRequest) ([]byte, error) {
	path := h.server.Config.Queries.Path

	// Edits to the file show up without a restart.
	c.Response().Header().Set("Cache-Control", "no-cache")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read canned queries: %w", err)
	}

	if !json.Valid(data) {
		return nil, errors.Errorf("canned queries file %s is not valid JSON", path)
	}

	return data, nil
}
