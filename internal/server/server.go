// Package server holds the application container and the HTTP lifecycle.
//
// It owns:
//   - configuration and loggers (plus the optional New Relic application)
//   - the prometheus registry
//   - the store connection: a pgx pool or a SQLite handle
//   - the optional redis client and the asynq job service built on it
//   - the http.Server
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/rsweb/internal/config"
	"github.com/deppfellow/rsweb/internal/database"
	"github.com/deppfellow/rsweb/internal/lib/job"
	"github.com/deppfellow/rsweb/internal/metrics"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/rsweb/internal/logger"
)

// Server is the application container shared by every layer.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	Metrics       *metrics.Metrics

	// DB is set when store.driver is postgres.
	DB *database.Database

	// SQLite is set when store.driver is sqlite.
	SQLite *sql.DB

	// Redis and Job are nil when no redis address is configured.
	Redis *redis.Client
	Job   *job.JobService

	httpServer *http.Server
}

// New opens the store, redis and job service.
//
// A store that cannot be opened fails startup. Redis that does not answer
// only logs: the cache falls through and prefetching becomes a no-op.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	s := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Metrics:       metrics.New(),
	}

	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.New(ctx, cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.DB = db
	case "sqlite":
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		s.SQLite = db
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if !cfg.Redis.Enabled() {
		logger.Info().Msg("redis not configured, scene image cache and prefetch disabled")
		return s, nil
	}

	s.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
	if loggerService.GetApplication() != nil {
		s.Redis.AddHook(nrredis.NewHook(s.Redis.Options()))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Redis.Ping(pingCtx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without a warm cache")
	}

	s.Job = job.NewJobService(logger, cfg)

	return s, nil
}

// SetupHTTPServer configures the http.Server around handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start starts the job workers and then serves HTTP until Shutdown.
// It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	if s.Job != nil {
		if err := s.Job.Start(); err != nil {
			return fmt.Errorf("failed to start job server: %w", err)
		}
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("store", s.Config.Store.Driver).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops HTTP first, then the workers, redis and the store.
// Every step runs even if an earlier one failed; the errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if err := s.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Close releases the store connection.
func (s *Server) Close() error {
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	if s.SQLite != nil {
		if err := s.SQLite.Close(); err != nil {
			return fmt.Errorf("failed to close sqlite store: %w", err)
		}
	}
	return nil
}
