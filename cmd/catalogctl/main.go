// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package main is catalogctl, the operator tool for the Gustus catalog.
//
// Subcommands:
//
//	rebuild          recompute all 1,920 taste profiles and store them
//	status           print the stored catalog version and profile counts
//	import-products  load a product snapshot (JSON) into the store
//
// All subcommands operate directly on the DuckDB database; run them
// against the same database path the server uses. The server picks up a
// rebuild on its next watcher reload or restart.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/gustus/internal/config"
	"github.com/tomtom215/gustus/internal/logging"
	"github.com/tomtom215/gustus/internal/rebuild"
	"github.com/tomtom215/gustus/internal/recommend"
	"github.com/tomtom215/gustus/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "catalogctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing subcommand")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})
	logger := logging.Get()

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
		return fmt.Errorf("opening store at %s: %w", cfg.Database.Path, err)
	}
	defer st.Close()

	switch args[0] {
	case "rebuild":
		return runRebuild(ctx, args[1:], cfg, st)
	case "status":
		return runStatus(ctx, st)
	case "import-products":
		return runImportProducts(ctx, args[1:], st)
	default:
		usage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: catalogctl <rebuild|status|import-products> [flags]")
}

func runRebuild(ctx context.Context, args []string, cfg *config.Config, st *store.Store) error {
	fs := flag.NewFlagSet("rebuild", flag.ContinueOnError)
	rps := fs.Float64("rate", cfg.Rebuild.ProfilesPerSecond, "profiles recomputed per second (0 = unlimited)")
	shortlist := fs.Int("shortlist", cfg.Rebuild.ShortlistSize, "stored shortlist length per category (0 = engine default)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rb := rebuild.New(rebuild.Config{
		ProfilesPerSecond: *rps,
		ShortlistSize:     *shortlist,
	}, &cfg.Recommend, st, nil, logging.Get())

	start := time.Now()
	version, err := rb.Run(ctx)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	fmt.Printf("rebuilt catalog version %d in %s\n", version, time.Since(start).Round(time.Millisecond))
	return nil
}

func runStatus(ctx context.Context, st *store.Store) error {
	version, err := st.CatalogVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading catalog version: %w", err)
	}
	profiles, err := st.ActiveProfiles(ctx)
	if err != nil {
		return fmt.Errorf("reading profiles: %w", err)
	}
	fmt.Printf("catalog version: %d\n", version)
	fmt.Printf("active profiles: %d\n", len(profiles))
	return nil
}

// productImport is the import-products file format: a product snapshot
// plus per-product COMMON spec entries.
type productImport struct {
	Products []recommend.Product             `json:"products"`
	Specs    map[int64][]recommend.SpecEntry `json:"specs"`
}

func runImportProducts(ctx context.Context, args []string, st *store.Store) error {
	fs := flag.NewFlagSet("import-products", flag.ContinueOnError)
	path := fs.String("file", "", "JSON file with products and specs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("import-products: -file is required")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *path, err)
	}
	var imp productImport
	if err := json.Unmarshal(data, &imp); err != nil {
		return fmt.Errorf("parsing %s: %w", *path, err)
	}
	if len(imp.Products) == 0 {
		return fmt.Errorf("%s contains no products", *path)
	}

	if err := st.UpsertProducts(ctx, imp.Products, imp.Specs); err != nil {
		return fmt.Errorf("importing products: %w", err)
	}
	fmt.Printf("imported %d products\n", len(imp.Products))
	return nil
}
