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

	"shophub/internal/admin"
	"shophub/internal/apiclient"
	"shophub/internal/catalog"
	"shophub/internal/config"
	"shophub/internal/handler"
	"shophub/internal/media"
	"shophub/internal/router"
	"shophub/internal/session"
)

// sweepInterval is how often idle sessions are removed.
const sweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting shophub gateway")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize backend client
	api, err := apiclient.New(cfg.API.BaseURL, cfg.API.RequestTimeout(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize API client: %w", err)
	}

	// Initialize catalogue; the gateway starts even when the backend is down
	catalogService := catalog.NewService(catalog.NewClient(api, logger), logger)
	if products, err := catalogService.Refresh(ctx); err != nil {
		logger.Warn().
			Err(err).
			Str("base_url", cfg.API.BaseURL).
			Msg("initial catalogue fetch failed, starting with an empty catalogue")
	} else {
		logger.Info().Int("products", len(products)).Msg("catalogue loaded")
	}

	// Initialize image source loader with S3 and local fallback
	fileLoader := media.NewFileLoader(cfg.Media.Root, logger)
	var s3Loader media.Loader

	if cfg.S3.Enabled {
		s3Loader, err = media.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Endpoint, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			s3Loader = nil
		}
	} else {
		logger.Info().Str("root", cfg.Media.Root).Msg("using local file system for image sources (S3 disabled)")
	}
	images := media.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)

	// Initialize admin mutator and sessions
	mutator := admin.NewMutator(api, catalogService, logger)
	sessions := session.NewManager(catalogService, cfg.Session.IdleDuration(), logger)
	go sessions.Run(ctx, sweepInterval)

	// Initialize HTTP handlers
	storeHandler := handler.NewStoreHandler(catalogService, logger)
	adminHandler := handler.NewAdminHandler(catalogService, mutator, images, logger)
	healthHandler := handler.NewHealthHandler(catalogService, sessions, logger)

	if cfg.Auth.AdminAPIKey == "" {
		logger.Warn().Msg("ADMIN_API_KEY is not set, admin routes are unauthenticated")
	}

	// Initialize router
	mux := router.New(storeHandler, adminHandler, healthHandler, sessions, router.Options{
		AdminAPIKey:    cfg.Auth.AdminAPIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SessionIdle:    cfg.Session.IdleDuration(),
	}, logger)

	// Create HTTP server; the write timeout leaves room for a slow backend
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.API.RequestTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("backend", cfg.API.BaseURL).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop the session sweeper
		cancel()

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
