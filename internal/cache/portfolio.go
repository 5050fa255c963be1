// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package cache provides the BadgerDB-backed portfolio-result cache.
//
// Entries are keyed by canonical answers plus catalog snapshot version and
// carry a TTL, so a catalog rebuild invalidates stale results without an
// explicit flush. Payloads are JSON; the cache is purely an optimization
// and never gates correctness.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/gustus/internal/metrics"
	"github.com/tomtom215/gustus/internal/recommend"
)

// keyPrefix namespaces portfolio entries within the Badger keyspace.
const keyPrefix = "portfolio:"

// PortfolioCache implements recommend.PortfolioCache on BadgerDB.
type PortfolioCache struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Options configures the cache database.
type Options struct {
	// Dir is the Badger data directory. Empty selects in-memory mode,
	// which is suitable for tests and single-run tools.
	Dir string
}

// Open opens (or creates) the cache database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(opts Options, logger zerolog.Logger) (*PortfolioCache, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.Dir == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &PortfolioCache{
		db:     db,
		logger: logger.With().Str("component", "portfolio_cache").Logger(),
	}, nil
}

// NewWithDB wraps an existing Badger handle, for hosts sharing one DB.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWithDB(db *badger.DB, logger zerolog.Logger) *PortfolioCache {
	return &PortfolioCache{
		db:     db,
		logger: logger.With().Str("component", "portfolio_cache").Logger(),
	}
}

// Get returns the cached portfolio for key, or nil on miss. Expired entries
// are misses; Badger reclaims them on compaction.
func (c *PortfolioCache) Get(ctx context.Context, key string) (*recommend.PortfolioResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result recommend.PortfolioResult
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheMisses.Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	metrics.CacheHits.Inc()
	return &result, nil
}

// Set stores a portfolio under key with the given TTL.
func (c *PortfolioCache) Set(ctx context.Context, key string, result *recommend.PortfolioResult, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal portfolio: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *PortfolioCache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	return nil
}
