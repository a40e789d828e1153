package repository

import (
	"fmt"

	"github.com/deppfellow/rsweb/internal/server"
)

// Repositories groups the repositories handed to the service layer.
type Repositories struct {
	Store Store

	// Cache is set when redis is configured; Store then points at it too.
	Cache *CachedStore
}

// NewRepositories picks the store backend the server opened and wraps it
// with the redis cache when one is available.
func NewRepositories(s *server.Server) (*Repositories, error) {
	var store Store
	switch {
	case s.DB != nil:
		store = NewPostgresStore(s.DB.Pool)
	case s.SQLite != nil:
		store = NewSQLiteStore(s.SQLite)
	default:
		return nil, fmt.Errorf("no %s store connection on server", s.Config.Store.Driver)
	}

	repos := &Repositories{Store: store}
	if s.Redis != nil {
		repos.Cache = NewCachedStore(store, s.Redis, s.Config.Redis.CacheTTL, s.Logger)
		repos.Store = repos.Cache
	}

	return repos, nil
}
