// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package api exposes the recommendation engine over HTTP using the chi
// router: questionnaire submission, taste lookups, health, and Prometheus
// metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/gustus/internal/recommend"
)

// Pinger reports storage liveness for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds router settings.
type Config struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
	RequestTimeout  time.Duration
}

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	cfg     Config
	engine  *recommend.Engine
	catalog recommend.TasteProfileRepo
	pinger  Pinger
	logger  zerolog.Logger
}

// NewRouter creates a router. pinger may be nil; readiness then only checks
// the catalog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(cfg Config, engine *recommend.Engine, catalog recommend.TasteProfileRepo, pinger Pinger, logger zerolog.Logger) *Router {
	return &Router{
		cfg:     cfg,
		engine:  engine,
		catalog: catalog,
		pinger:  pinger,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// Handler assembles the route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.RateLimitReqs > 0 {
			r.Use(httprate.Limit(
				rt.cfg.RateLimitReqs,
				rt.cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))
		}
		r.Use(prometheusMetrics)

		r.Post("/recommend", rt.Recommend)
		r.Get("/tastes/{id}", rt.TasteByID)
	})

	r.Get("/healthz/live", rt.HealthLive)
	r.Get("/healthz/ready", rt.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
