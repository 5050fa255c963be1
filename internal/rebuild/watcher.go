// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package rebuild

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/gustus/internal/metrics"
	"github.com/tomtom215/gustus/internal/recommend/catalog"
)

// SnapshotLoader materializes the stored catalog for serving.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Watcher hot-swaps the serving snapshot whenever a rebuilt event arrives.
// It implements suture.Service.
type Watcher struct {
	subscriber message.Subscriber
	loader     SnapshotLoader
	holder     *catalog.Holder
	logger     zerolog.Logger
}

// NewWatcher creates a watcher over the given subscriber and holder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWatcher(subscriber message.Subscriber, loader SnapshotLoader, holder *catalog.Holder, logger zerolog.Logger) *Watcher {
	return &Watcher{
		subscriber: subscriber,
		loader:     loader,
		holder:     holder,
		logger:     logger.With().Str("component", "catalog-watcher").Logger(),
	}
}

// Serve consumes rebuilt events until the context is canceled.
func (w *Watcher) Serve(ctx context.Context) error {
	msgs, err := w.subscriber.Subscribe(ctx, TopicCatalogRebuilt)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicCatalogRebuilt, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var event RebuiltEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		w.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("malformed rebuilt event")
		return
	}

	if err := w.Reload(ctx); err != nil {
		w.logger.Error().Err(err).Int64("version", event.Version).Msg("snapshot reload failed")
		return
	}

	w.logger.Info().Int64("version", event.Version).Msg("serving snapshot swapped")
}

// Reload loads the stored catalog and swaps it into the holder. Also used
// at startup and by the periodic fallback when no event bus is wired.
func (w *Watcher) Reload(ctx context.Context) error {
	snap, err := w.loader.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	w.holder.Swap(snap)
	metrics.CatalogVersion.Set(float64(snap.Version()))
	metrics.CatalogProfiles.Set(float64(snap.Len()))
	return nil
}
