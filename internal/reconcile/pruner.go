// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/resumefeed/internal/catalog"
	"github.com/tomtom215/resumefeed/internal/logging"
	"github.com/tomtom215/resumefeed/internal/metrics"
	"github.com/tomtom215/resumefeed/internal/models"
)

// PruneSeries enforces the single-entry-per-series invariant for one series:
// the most recently engaged entry stays, everything else is removed. Returns
// the number of entries removed.
//
// The engine runs this automatically after every in-progress episode upsert;
// calling it directly is useful for repairing a feed mutated by the host
// platform out of band.
func (e *Engine) PruneSeries(ctx context.Context, seriesID string) (int, error) {
	unlock := e.seriesLocks.lock(seriesID)
	defer unlock()
	return e.pruneSeriesLocked(ctx, seriesID)
}

// pruneSeriesLocked does the pruning work. Callers must hold the series lock.
func (e *Engine) pruneSeriesLocked(ctx context.Context, seriesID string) (int, error) {
	all, err := e.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune %s: list: %w", seriesID, err)
	}
	metrics.FeedEntries.Set(float64(len(all)))

	var entries []models.FeedEntry
	for _, entry := range all {
		if entry.SeriesID == seriesID {
			entries = append(entries, entry)
		}
	}
	if len(entries) <= 1 {
		return 0, nil
	}

	keep := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].MoreRecentThan(&entries[keep]) {
			keep = i
		}
	}

	removed := 0
	for i, entry := range entries {
		if i == keep {
			continue
		}
		if err := e.store.Remove(ctx, entry.CatalogID); err != nil {
			if !errors.Is(err, catalog.ErrNotFound) {
				return removed, fmt.Errorf("prune %s: remove %s: %w", seriesID, entry.CatalogID, err)
			}
			// Already gone; the invariant holds either way.
			logging.Warn().
				Str("series_id", seriesID).
				Str("catalog_id", entry.CatalogID).
				Msg("Prune target already gone from catalog")
		}
		removed++
		metrics.PruneRemovals.Inc()
		e.notify(ctx, ActionRemoved, entry)
	}

	if removed > 0 {
		logging.Debug().
			Str("series_id", seriesID).
			Int("removed", removed).
			Str("kept", entries[keep].CatalogID).
			Msg("Pruned superseded series entries")
	}
	return removed, nil
}
