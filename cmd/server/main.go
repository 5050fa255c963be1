// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package main is the entry point for the Gustus recommendation server.
//
// Application Architecture:
//
// The server is composed of a small number of long-lived components wired
// together at startup and supervised for the lifetime of the process:
//
//   - DuckDB store: the taste-profile catalog, the product snapshot, and
//     product specs live in a single embedded DuckDB database.
//   - Catalog holder: an atomically swappable in-memory snapshot of the
//     active taste profiles, loaded from the store at startup and replaced
//     whenever a rebuild completes.
//   - Recommendation engine: classifies onboarding answers to a taste
//     profile and assembles a product portfolio per request.
//   - Badger cache: optional persistent portfolio cache keyed by the
//     canonical answers and the catalog version.
//   - Rebuild pipeline: optional periodic recomputation of all 1,920
//     taste profiles, publishing a catalog.rebuilt event that the watcher
//     consumes to swap the in-memory snapshot.
//   - HTTP API: chi router serving /api/v1, health probes, and Prometheus
//     metrics.
//
// All long-running components run under a suture supervision tree with a
// data layer (catalog watcher, rebuild loop) and an API layer (HTTP
// server), so a panic in one component restarts that component without
// taking the process down.
//
// Configuration:
//
// Configuration is layered: defaults, then an optional YAML file
// (GUSTUS_CONFIG_PATH or the standard search paths), then GUSTUS_*
// environment variables. See internal/config.
//
// Signal Handling:
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server drains
// in-flight requests within the configured shutdown timeout, then the
// supervision tree stops the data-layer services and the process exits.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/gustus/internal/api"
	"github.com/tomtom215/gustus/internal/cache"
	"github.com/tomtom215/gustus/internal/config"
	"github.com/tomtom215/gustus/internal/logging"
	"github.com/tomtom215/gustus/internal/rebuild"
	"github.com/tomtom215/gustus/internal/recommend"
	"github.com/tomtom215/gustus/internal/recommend/catalog"
	"github.com/tomtom215/gustus/internal/store"
	"github.com/tomtom215/gustus/internal/supervisor"
	"github.com/tomtom215/gustus/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gustus: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Get()
	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Path).
		Bool("cache", cfg.Cache.Enabled).
		Bool("rebuild", cfg.Rebuild.Enabled).
		Msg("Starting gustus server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := store.Open(openCtx, store.Config{
		Path:      cfg.Database.Path,
		Threads:   cfg.Database.Threads,
		MaxMemory: cfg.Database.MaxMemory,
	}, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("Failed to close store")
		}
	}()

	// In-process pubsub linking the rebuild pipeline to the catalog watcher.
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	holder := &catalog.Holder{}
	watcher := rebuild.NewWatcher(pubSub, st, holder, logger)
	if err := watcher.Reload(ctx); err != nil {
		// An empty database is a valid cold start: the server answers
		// CATALOG_EMPTY until the first rebuild lands.
		logger.Warn().Err(err).Msg("Starting with an empty catalog")
		empty, serr := catalog.NewSnapshot(0, nil)
		if serr != nil {
			return fmt.Errorf("building empty catalog snapshot: %w", serr)
		}
		holder.Swap(empty)
	}

	// The serving cache config mirrors the top-level cache block.
	cfg.Recommend.Cache.Enabled = cfg.Cache.Enabled
	cfg.Recommend.Cache.TTL = cfg.Cache.TTL

	engine, err := recommend.NewEngine(&cfg.Recommend, holder, st, logger)
	if err != nil {
		return fmt.Errorf("building recommendation engine: %w", err)
	}

	if cfg.Cache.Enabled {
		pc, cerr := cache.Open(cache.Options{Dir: cfg.Cache.Dir}, logger)
		if cerr != nil {
			return fmt.Errorf("opening portfolio cache: %w", cerr)
		}
		defer func() {
			if err := pc.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close portfolio cache")
			}
		}()
		engine.SetCache(pc)
	}

	router := api.NewRouter(api.Config{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
		RequestTimeout:  cfg.Server.RequestTimeout,
	}, engine, holder, st, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	tree := supervisor.NewTree(slogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddDataService(watcher)
	if cfg.Rebuild.Enabled {
		rebuilder := rebuild.New(rebuild.Config{
			ProfilesPerSecond: cfg.Rebuild.ProfilesPerSecond,
			ShortlistSize:     cfg.Rebuild.ShortlistSize,
		}, &cfg.Recommend, st, pubSub, logger)
		tree.AddDataService(services.NewRebuildService(
			rebuilder, cfg.Rebuild.Interval, cfg.Rebuild.OnStartup, logger))
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	logger.Info().Str("addr", srv.Addr).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervision tree failed: %w", err)
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}
