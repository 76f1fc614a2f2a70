package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Moyowalker/onye-test/internal/config"
	"github.com/Moyowalker/onye-test/internal/domain/query"
	"github.com/Moyowalker/onye-test/internal/nlp"
	"github.com/Moyowalker/onye-test/internal/platform/auth"
	"github.com/Moyowalker/onye-test/internal/platform/db"
	"github.com/Moyowalker/onye-test/internal/platform/metrics"
	"github.com/Moyowalker/onye-test/internal/platform/middleware"
	"github.com/Moyowalker/onye-test/internal/repository"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "onye-server",
		Short: "Clinical natural-language query API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the query API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema and seed the demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrate")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Println("Schema applied and demo data seeded.")
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Language model. Loading can fail on a broken install, which is not
	// recoverable at runtime.
	tagger, err := nlp.NewProseTagger()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load language model")
	}
	interp := nlp.NewInterpreter(tagger)

	// Data source
	ctx := context.Background()
	opts := repository.Options{
		BaseURL: cfg.FHIRBaseURL,
		Timeout: cfg.FHIRTimeout(),
	}
	if cfg.FHIRServerType == repository.TypePostgres {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		opts.Pool = pool
		logger.Info().Msg("connected to database")
	}
	repo, err := repository.New(cfg.FHIRServerType, opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build FHIR repository")
	}
	logger.Info().Str("type", cfg.FHIRServerType).Msg("FHIR data source ready")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health and metrics stay outside auth.
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if opts.Pool != nil {
		e.GET("/api/health/db", db.HealthHandler(opts.Pool))
	}
	e.GET("/metrics", metrics.Handler())

	// Authenticated API
	api := e.Group("/api")
	if cfg.ResolvedAuthMode() == "development" {
		api.Use(auth.DevMiddleware())
	} else {
		api.Use(auth.Middleware(auth.NewValidator(auth.Config{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.ResolvedJWKSURL(),
		})))
	}

	auth.NewHandler().RegisterRoutes(api)
	querySvc := query.NewService(interp, repo, logger)
	query.NewHandler(querySvc).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
