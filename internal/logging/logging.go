// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package logging provides centralized zerolog-based logging for Gustus.
//
// All packages log through this package so that level, format, and
// correlation-ID handling stay uniform:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("component", "engine").Msg("ready")
//	logging.Ctx(ctx).Debug().Msg("request processed")
//
// Always terminate log chains with .Msg() or .Send().
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string

	// Format is the output format: json or console.
	// Default: json
	Format string

	// Caller includes caller file and line number in logs.
	Caller bool

	// Output is the writer for log output. Default: os.Stderr.
	Output io.Writer
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Init configures the global logger. Call once at application startup.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	logger = ctx.Logger()
}

// Get returns the global logger.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns the global logger's context for building sub-loggers.
func With() zerolog.Context {
	return Get().With()
}

// correlationKey is the context key for request correlation IDs.
type correlationKey struct{}

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID extracts the correlation ID from the context, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Ctx returns a logger enriched with the context's correlation ID.
func Ctx(ctx context.Context) zerolog.Logger {
	l := Get()
	if id := CorrelationID(ctx); id != "" {
		l = l.With().Str("correlation_id", id).Logger()
	}
	return l
}

// Trace starts a trace-level event on the global logger.
func Trace() *zerolog.Event { l := Get(); return l.Trace() }

// Debug starts a debug-level event on the global logger.
func Debug() *zerolog.Event { l := Get(); return l.Debug() }

// Info starts an info-level event on the global logger.
func Info() *zerolog.Event { l := Get(); return l.Info() }

// Warn starts a warn-level event on the global logger.
func Warn() *zerolog.Event { l := Get(); return l.Warn() }

// Error starts an error-level event on the global logger.
func Error() *zerolog.Event { l := Get(); return l.Error() }
