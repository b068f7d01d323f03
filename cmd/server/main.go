// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/shelfmark/internal/api"
	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/database"
	"github.com/tomtom215/shelfmark/internal/logging"
	"github.com/tomtom215/shelfmark/internal/recommend"
	"github.com/tomtom215/shelfmark/internal/supervisor"
	"github.com/tomtom215/shelfmark/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().Str("version", version).Msg("Starting Shelfmark with supervisor tree")
	logging.Info().
		Str("db_driver", cfg.Database.Driver).
		Str("db_path", cfg.Database.Path).
		Strs("sources", cfg.Database.Sources).
		Bool("embeddings", cfg.Embedding.Enabled).
		Bool("events", cfg.Events.Enabled).
		Msg("Configuration loaded")

	watchLogLevel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if cfg.Database.CreateSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			logging.Error().Err(err).Msg("Failed to create schema")
			return
		}
	}
	logging.Info().Msg("Database initialized successfully")

	// Dense capability is decided once here and never re-probed
	embedder, embedCache := initEmbedder(ctx, &cfg.Embedding, logger)
	defer func() {
		if err := embedCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing embedding cache")
		}
	}()

	eventComponents, err := initEventTransport(ctx, &cfg.Events, logger)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize event transport")
		return
	}
	defer func() {
		if err := eventComponents.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event transport")
		}
	}()

	// Bridges zerolog to slog for sutureslog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}

	// Interfaces stay nil (not typed-nil) when events are off
	var listener recommend.DeliveryListener
	var eventPub api.EventPublisher
	if eventComponents != nil {
		eventPub = eventComponents.Publisher
		if dispatcher := registerDeliveryDispatcher(&cfg.Events, eventComponents, tree, logger); dispatcher != nil {
			listener = dispatcher
		}
	}

	engine, err := initRecommend(cfg, db, embedder, listener, tree, logger)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize recommendation engine")
		return
	}

	registerEventRouter(cfg, eventComponents, engine, db, tree, logger)

	handler, err := api.NewHandler(api.HandlerConfig{
		DefaultK:       cfg.Recommend.DefaultK,
		MaxK:           cfg.Recommend.MaxK,
		RebuildTimeout: cfg.Recommend.RebuildTimeout,
		Version:        version,
	}, engine, db, eventPub, logger)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create API handler")
		return
	}

	chiMiddleware := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))
	router := api.NewRouter(handler, chiMiddleware)

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// watchLogLevel re-reads the config file on change and applies a new log
// level. Every other setting requires a restart.
func watchLogLevel() {
	path := config.FindConfigFile()
	if path == "" {
		return
	}

	err := config.WatchConfigFile(path, func() {
		reloaded, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config reload")
			return
		}
		if reloaded.Logging.Level != logging.GetLevel().String() {
			logging.SetLevelString(reloaded.Logging.Level)
			logging.Info().Str("level", reloaded.Logging.Level).Msg("Log level updated")
		}
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
