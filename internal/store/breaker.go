// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package store

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/gustus/internal/metrics"
)

// queryBreaker guards database reads so repeated failures trip fast
// instead of letting every request wait out a broken connection.
type queryBreaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newQueryBreaker(name string, logger zerolog.Logger) *queryBreaker {
	log := logger.With().Str("component", "store-breaker").Logger()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &queryBreaker{cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// execute runs fn through the breaker, tracking request outcomes.
func (b *queryBreaker) execute(fn func() (any, error)) (any, error) {
	out, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.BreakerRequests.WithLabelValues(b.cb.Name(), "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.BreakerRequests.WithLabelValues(b.cb.Name(), "rejected").Inc()
	default:
		metrics.BreakerRequests.WithLabelValues(b.cb.Name(), "failure").Inc()
	}
	return out, err
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
