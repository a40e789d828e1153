package handler

import (
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/deppfellow/rsweb/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Query   *QueryHandler
	Queries *QueriesHandler
	Health  *HealthHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Query:   NewQueryHandler(s, services.Scenes),
		Queries: NewQueriesHandler(s),
		Health:  NewHealthHandler(s, services.Scenes),
	}
}
