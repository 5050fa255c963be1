// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// CatalogRebuilder runs one full catalog recompute.
type CatalogRebuilder interface {
	Run(ctx context.Context) (int64, error)
}

// RebuildService runs the catalog rebuild on a fixed interval, optionally
// once at startup.
type RebuildService struct {
	rebuilder CatalogRebuilder
	interval  time.Duration
	onStartup bool
	logger    zerolog.Logger
}

// NewRebuildService creates a periodic rebuild service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRebuildService(rebuilder CatalogRebuilder, interval time.Duration, onStartup bool, logger zerolog.Logger) *RebuildService {
	return &RebuildService{
		rebuilder: rebuilder,
		interval:  interval,
		onStartup: onStartup,
		logger:    logger.With().Str("component", "rebuild-service").Logger(),
	}
}

// Serve implements suture.Service. A failed rebuild is logged and retried
// at the next tick; the service itself keeps running so the supervisor only
// restarts it on panics.
func (s *RebuildService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("rebuild interval must be positive, got %s", s.interval)
	}

	if s.onStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *RebuildService) runOnce(ctx context.Context) {
	version, err := s.rebuilder.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled catalog rebuild failed")
		return
	}
	s.logger.Info().Int64("version", version).Msg("scheduled catalog rebuild complete")
}

// String implements fmt.Stringer for supervisor logs.
func (s *RebuildService) String() string { return "catalog-rebuild" }
