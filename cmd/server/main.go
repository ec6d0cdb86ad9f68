// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

// Package main is the entry point for the Resumefeed server.
//
// Resumefeed keeps a media platform's "Continue Watching" feed consistent
// with playback activity. Players report playback positions; Resumefeed
// classifies each report against started/finished thresholds and reconciles
// the catalog's feed entries: upserting in-progress items, removing finished
// ones, pruning stale episodes of the same series, and promoting the next
// unwatched episode when one finishes.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables layered over config.yaml (Koanf v2)
//  2. Catalog store: in-memory, embedded BadgerDB, or a remote catalog API
//     (optionally behind a circuit breaker)
//  3. Event bus: in-process Watermill pub/sub for feed mutation events
//  4. Reconciliation engine: classifier, pruner, and episode promotion
//  5. HTTP server: Chi REST API plus Prometheus metrics
//  6. Supervisor tree: suture-managed lifecycle with graceful shutdown
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (HTTP_PORT, CATALOG_BACKEND, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the event bus and catalog store
//
// # Example Usage
//
// Development with an in-memory catalog:
//
//	export CATALOG_BACKEND=memory
//	export DISABLE_RATE_LIMIT=true
//	./resumefeed
//
// Embedded persistent catalog:
//
//	export CATALOG_BACKEND=badger
//	export CATALOG_PATH=/data/resumefeed
//	./resumefeed
//
// Against a remote catalog API with a circuit breaker:
//
//	export CATALOG_BACKEND=remote
//	export CATALOG_URL=http://catalog:9090
//	export CATALOG_API_KEY=your-api-key
//	export CATALOG_CIRCUIT_BREAKER=true
//	./resumefeed
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/resumefeed/internal/api"
	"github.com/tomtom215/resumefeed/internal/catalog"
	"github.com/tomtom215/resumefeed/internal/config"
	"github.com/tomtom215/resumefeed/internal/events"
	"github.com/tomtom215/resumefeed/internal/logging"
	"github.com/tomtom215/resumefeed/internal/reconcile"
	"github.com/tomtom215/resumefeed/internal/supervisor"
	"github.com/tomtom215/resumefeed/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("backend", cfg.Catalog.Backend).
		Str("addr", cfg.Server.Addr()).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting Resumefeed")

	store, err := newStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize catalog store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog store")
		}
	}()
	logging.Info().Str("backend", cfg.Catalog.Backend).Msg("Catalog store initialized")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	engineOpts := []reconcile.Option{
		reconcile.WithThresholds(reconcile.Thresholds{
			StartedFraction: cfg.Playback.StartedFraction,
			StartedMinimum:  cfg.Playback.StartedMinimum,
		}),
	}

	var bus *events.Bus
	if cfg.Events.Enabled {
		bus = events.NewBus()
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		engineOpts = append(engineOpts, reconcile.WithNotifier(bus))
		tree.AddEventsService(events.NewRelay(bus))
		logging.Info().Msg("Feed mutation event bus enabled")
	}

	engine := reconcile.NewEngine(store, engineOpts...)
	router := api.NewHandler(engine, store).Router(cfg.Security)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, 10*time.Second, logging.Logger()))

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newStore builds the catalog store selected by configuration.
func newStore(cfg *config.Config) (catalog.Store, error) {
	switch cfg.Catalog.Backend {
	case catalog.BackendMemory:
		return catalog.NewMemoryStore(), nil
	case catalog.BackendBadger:
		return catalog.NewBadgerStore(cfg.Catalog.Path)
	case catalog.BackendRemote:
		remote, err := catalog.NewRemoteStore(catalog.RemoteConfig{
			URL:     cfg.Catalog.Remote.URL,
			APIKey:  cfg.Catalog.Remote.APIKey,
			Timeout: cfg.Catalog.Remote.Timeout,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Catalog.Remote.CircuitBreaker {
			return catalog.NewCircuitBreakerStore(remote), nil
		}
		return remote, nil
	default:
		return nil, errors.New("unknown catalog backend: " + cfg.Catalog.Backend)
	}
}
