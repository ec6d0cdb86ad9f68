// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package reconcile

import (
	"context"
	"errors"

	"github.com/tomtom215/resumefeed/internal/catalog"
	"github.com/tomtom215/resumefeed/internal/logging"
	"github.com/tomtom215/resumefeed/internal/metrics"
	"github.com/tomtom215/resumefeed/internal/models"
)

// maxPromotionCandidates bounds the walk across fully-watched episodes when
// looking for a successor, guarding against a misbehaving series lookup that
// never returns nil.
const maxPromotionCandidates = 64

// promoteSuccessor inserts the next unwatched episode of the finished
// episode's series into the feed at position zero. Best-effort: any failure
// is logged and swallowed, and a series that already has a feed entry for
// the successor is left alone. Returns the promoted entry's catalog id, or
// empty when nothing was promoted.
//
// Callers must hold the series lock. The successor's content lock is not
// taken; a concurrent reconcile for the successor itself will simply
// re-query and converge.
func (e *Engine) promoteSuccessor(ctx context.Context, finished *models.Video, series SeriesLookup) string {
	after := finished
	for i := 0; i < maxPromotionCandidates; i++ {
		candidate, err := series.NextUnwatchedEpisode(ctx, finished.SeriesID, after)
		if err != nil {
			logging.Warn().Err(err).
				Str("series_id", finished.SeriesID).
				Msg("Successor lookup failed; skipping promotion")
			metrics.Promotions.WithLabelValues("failed").Inc()
			return ""
		}
		if candidate == nil {
			// Last episode of the series, or nothing left unwatched.
			metrics.Promotions.WithLabelValues("none").Inc()
			return ""
		}
		if candidate.FullyWatched {
			after = candidate
			continue
		}

		_, err = e.store.FindByIdentity(ctx, candidate.ID)
		switch {
		case err == nil:
			// The successor is already in the feed; the series is
			// represented and no promotion is needed.
			metrics.Promotions.WithLabelValues("none").Inc()
			return ""
		case !errors.Is(err, catalog.ErrNotFound):
			logging.Warn().Err(err).
				Str("video_id", candidate.ID).
				Msg("Successor feed lookup failed; skipping promotion")
			metrics.Promotions.WithLabelValues("failed").Inc()
			return ""
		}

		entry := models.NewFeedEntry(candidate, 0, e.now())
		catalogID, err := e.store.Upsert(ctx, entry, "")
		if err != nil {
			logging.Warn().Err(err).
				Str("video_id", candidate.ID).
				Msg("Successor upsert failed; skipping promotion")
			metrics.Promotions.WithLabelValues("failed").Inc()
			return ""
		}
		entry.CatalogID = catalogID
		e.notify(ctx, ActionUpserted, entry)

		if _, err := e.pruneSeriesLocked(ctx, finished.SeriesID); err != nil {
			logging.Warn().Err(err).
				Str("series_id", finished.SeriesID).
				Msg("Prune after promotion failed")
		}

		logging.Info().
			Str("series_id", finished.SeriesID).
			Str("video_id", candidate.ID).
			Str("catalog_id", catalogID).
			Msg("Promoted successor episode into feed")
		metrics.Promotions.WithLabelValues("promoted").Inc()
		return catalogID
	}

	logging.Warn().
		Str("series_id", finished.SeriesID).
		Int("candidates", maxPromotionCandidates).
		Msg("Gave up searching for successor episode")
	metrics.Promotions.WithLabelValues("failed").Inc()
	return ""
}
