// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package store persists the taste catalog and product catalog in an
// embedded DuckDB database and implements the core's read-only repository
// interfaces on top of it.
//
// All reads go through a circuit breaker so a wedged database degrades fast
// instead of piling up blocked requests. Bulk endpoints (ActiveProfiles,
// SpecsFor) are single queries; the scoring path never triggers per-product
// round trips.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/rs/zerolog"
)

// Config holds store configuration.
type Config struct {
	// Path is the DuckDB database file. Empty opens an in-memory
	// database, suitable for tests and one-shot tools.
	Path string `koanf:"path"`

	// Threads is the DuckDB thread count; zero means NumCPU.
	Threads int `koanf:"threads"`

	// MaxMemory is the DuckDB memory limit (e.g. "1GB"). Empty uses the
	// engine default.
	MaxMemory string `koanf:"max_memory"`
}

// Store wraps the DuckDB connection and implements the repo interfaces.
type Store struct {
	conn    *sql.DB
	logger  zerolog.Logger
	breaker *queryBreaker
}

// Open opens the database, applies connection settings, and ensures the
// schema exists.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)

	s := &Store{
		conn:    conn,
		logger:  logger.With().Str("component", "store").Logger(),
		breaker: newQueryBreaker("duckdb-store", logger),
	}

	if err := s.ensureSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close duckdb: %w", err)
	}
	return nil
}

// ensureSchema creates the catalog tables when absent.
func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS taste_profiles (
			taste_id               INTEGER PRIMARY KEY,
			style_label            VARCHAR NOT NULL,
			rep_vibe               VARCHAR NOT NULL,
			rep_household_size     INTEGER NOT NULL,
			rep_main_space         VARCHAR NOT NULL,
			rep_has_pet            VARCHAR NOT NULL,
			rep_priority           VARCHAR NOT NULL,
			rep_budget_level       VARCHAR NOT NULL,
			recommended_categories VARCHAR NOT NULL,
			ill_suited_categories  VARCHAR NOT NULL,
			category_scores        VARCHAR NOT NULL,
			recommended_products   VARCHAR NOT NULL,
			product_scores         VARCHAR NOT NULL,
			is_active              BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_meta (
			meta_key   VARCHAR PRIMARY KEY,
			meta_value BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			product_id    BIGINT PRIMARY KEY,
			name          VARCHAR NOT NULL,
			main_category VARCHAR NOT NULL,
			price         BIGINT NOT NULL,
			status        VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS product_specs (
			product_id BIGINT NOT NULL,
			namespace  VARCHAR NOT NULL,
			spec_key   VARCHAR NOT NULL,
			spec_value VARCHAR NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	s.logger.Debug().Msg("schema ensured")
	return nil
}
