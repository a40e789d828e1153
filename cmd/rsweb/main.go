// Command rsweb serves the scene/object store query front-end.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/rsweb/internal/config"
	"github.com/deppfellow/rsweb/internal/database"
	"github.com/deppfellow/rsweb/internal/handler"
	"github.com/deppfellow/rsweb/internal/logger"
	"github.com/deppfellow/rsweb/internal/middleware"
	"github.com/deppfellow/rsweb/internal/repository"
	"github.com/deppfellow/rsweb/internal/router"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/deppfellow/rsweb/internal/service"
	"github.com/spf13/cobra"
)

const (
	appName = "rsweb"

	// DefaultContextTimeout bounds graceful shutdown.
	DefaultContextTimeout = 30 * time.Second
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Query front-end for the annotated scene store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides RSWEB_CONFIG_FILE)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP front-end",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the store schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if cfg.Primary.Env != "local" && cfg.Store.Driver == "postgres" {
		if err := database.Migrate(ctx, &log, cfg); err != nil {
			log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}

	srv, err := server.New(ctx, cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	services, err := service.NewServices(srv, repos)
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("failed to create services: %w", err)
	}

	handlers := handler.NewHandlers(srv, services)
	middlewares := middleware.NewMiddlewares(srv)

	r, err := router.NewRouter(srv, handlers, middlewares)
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			_ = srv.Shutdown(context.Background())
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}

func migrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Observability)

	switch cfg.Store.Driver {
	case "postgres":
		return database.Migrate(ctx, &log, cfg)
	case "sqlite":
		// Opening a SQLite store applies its schema.
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLite, &log)
		if err != nil {
			return err
		}
		return db.Close()
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
