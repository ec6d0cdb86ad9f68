// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

// Package reconcile implements the continuation feed reconciliation engine:
// the decision logic that maps a playback observation to a catalog mutation
// while preserving the at-most-one-entry-per-identity and
// at-most-one-entry-per-series invariants.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/resumefeed/internal/catalog"
	"github.com/tomtom215/resumefeed/internal/logging"
	"github.com/tomtom215/resumefeed/internal/metrics"
	"github.com/tomtom215/resumefeed/internal/models"
)

// Action is the catalog mutation a reconcile call resolved to.
type Action string

const (
	// ActionNoOp means the report was observed but ignored, typically
	// because the video has not crossed the started threshold.
	ActionNoOp Action = "noop"
	// ActionUpserted means a feed entry was created or updated in place.
	ActionUpserted Action = "upserted"
	// ActionRemoved means an existing feed entry was removed.
	ActionRemoved Action = "removed"
	// ActionRemovalSkipped means the video finished but no feed entry
	// existed, so there was nothing to remove.
	ActionRemovalSkipped Action = "removal_skipped"
)

// Result describes the outcome of one reconcile invocation.
type Result struct {
	Action Action `json:"action"`
	// CatalogID is the id of the entry that was upserted or removed; empty
	// for ActionNoOp and ActionRemovalSkipped.
	CatalogID string `json:"catalog_id,omitempty"`
	// PromotedID is the catalog id of a successor episode entry created on
	// the finish path, when promotion applied.
	PromotedID string `json:"promoted_id,omitempty"`
	// Pruned is the number of superseded series entries removed.
	Pruned int `json:"pruned,omitempty"`
}

// SeriesLookup resolves episode ordering for successor promotion. Returning
// (nil, nil) means no further episode exists after the given one.
type SeriesLookup interface {
	NextUnwatchedEpisode(ctx context.Context, seriesID string, after *models.Video) (*models.Video, error)
}

// Notifier receives feed mutation notifications after a successful catalog
// write. Implementations must be non-blocking; delivery is best-effort.
type Notifier interface {
	FeedMutated(ctx context.Context, action Action, entry models.FeedEntry)
}

// Engine reconciles playback reports against the continuation feed. Create
// one with NewEngine; the zero value is not usable.
//
// Reconcile calls for the same content identity are serialized; calls for
// different identities proceed independently. Pruning and promotion for a
// series are serialized against episode upserts of that series.
type Engine struct {
	store      catalog.Store
	thresholds Thresholds
	notifier   Notifier

	contentLocks *keyedMutex
	seriesLocks  *keyedMutex

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides the started-threshold configuration.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithNotifier registers a mutation notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock overrides the engagement timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a reconciliation engine backed by store.
func NewEngine(store catalog.Store, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		thresholds:   DefaultThresholds(),
		contentLocks: newKeyedMutex(),
		seriesLocks:  newKeyedMutex(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile maps one playback report to its catalog mutation and applies it.
// series may be nil; it is consulted only on the episode-finished path for
// successor promotion.
//
// Reconcile is idempotent: re-running with the same report converges on the
// same feed state, because the current entry is re-queried on every call.
// Catalog failures propagate whole; the engine performs no internal retries.
func (e *Engine) Reconcile(ctx context.Context, video *models.Video, report *models.PlaybackReport, series SeriesLookup) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	if !video.Kind.Valid() {
		metrics.ReconcileErrors.WithLabelValues("unsupported_kind").Inc()
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedContentKind, video.Kind)
	}
	if err := video.Validate(); err != nil {
		metrics.ReconcileErrors.WithLabelValues("invalid_input").Inc()
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := report.Validate(video); err != nil {
		metrics.ReconcileErrors.WithLabelValues("invalid_input").Inc()
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	status := e.thresholds.Classify(video, report)
	if status == StatusNotStarted {
		// Expected for reports arriving before the started threshold.
		// No catalog call is made.
		metrics.ReconcileTotal.WithLabelValues(string(ActionNoOp)).Inc()
		return Result{Action: ActionNoOp}, nil
	}

	unlock := e.contentLocks.lock(video.ID)
	defer unlock()

	var (
		result Result
		err    error
	)
	switch status {
	case StatusFinished:
		result, err = e.finish(ctx, video, series)
	default:
		result, err = e.progress(ctx, video, report)
	}
	if err != nil {
		metrics.ReconcileErrors.WithLabelValues("catalog").Inc()
		return Result{}, err
	}

	metrics.ReconcileTotal.WithLabelValues(string(result.Action)).Inc()
	return result, nil
}

// finish removes the video's feed entry, tolerating entries that are already
// gone, then attempts successor promotion for episodes.
func (e *Engine) finish(ctx context.Context, video *models.Video, series SeriesLookup) (Result, error) {
	result := Result{Action: ActionRemovalSkipped}

	existing, err := e.store.FindByIdentity(ctx, video.ID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		// Nothing in the feed for this video; skipping is not an error.
	case err != nil:
		return Result{}, fmt.Errorf("reconcile %s: lookup: %w", video.ID, err)
	default:
		if err := e.store.Remove(ctx, existing.CatalogID); err != nil {
			if !errors.Is(err, catalog.ErrNotFound) {
				return Result{}, fmt.Errorf("reconcile %s: remove %s: %w", video.ID, existing.CatalogID, err)
			}
			// Lost a race with an external deletion. The desired end
			// state already holds, so this counts as a removal.
			logging.Warn().
				Str("video_id", video.ID).
				Str("catalog_id", existing.CatalogID).
				Msg("Removal target already gone from catalog")
		}
		result = Result{Action: ActionRemoved, CatalogID: existing.CatalogID}
		e.notify(ctx, ActionRemoved, *existing)
	}

	if video.IsEpisode() && series != nil {
		unlock := e.seriesLocks.lock(video.SeriesID)
		result.PromotedID = e.promoteSuccessor(ctx, video, series)
		unlock()
	}

	return result, nil
}

// progress creates or updates the video's feed entry in place, then prunes
// sibling episodes of the same series.
func (e *Engine) progress(ctx context.Context, video *models.Video, report *models.PlaybackReport) (Result, error) {
	existingID := ""
	existing, err := e.store.FindByIdentity(ctx, video.ID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		// First entry for this identity.
	case err != nil:
		return Result{}, fmt.Errorf("reconcile %s: lookup: %w", video.ID, err)
	default:
		existingID = existing.CatalogID
	}

	entry := models.NewFeedEntry(video, report.Position, e.now())
	catalogID, err := e.store.Upsert(ctx, entry, existingID)
	if err != nil {
		return Result{}, fmt.Errorf("reconcile %s: upsert: %w", video.ID, err)
	}
	entry.CatalogID = catalogID
	e.notify(ctx, ActionUpserted, entry)

	result := Result{Action: ActionUpserted, CatalogID: catalogID}

	if video.IsEpisode() {
		unlock := e.seriesLocks.lock(video.SeriesID)
		pruned, err := e.pruneSeriesLocked(ctx, video.SeriesID)
		unlock()
		if err != nil {
			return Result{}, fmt.Errorf("reconcile %s: prune series %s: %w", video.ID, video.SeriesID, err)
		}
		result.Pruned = pruned
	}

	return result, nil
}

func (e *Engine) notify(ctx context.Context, action Action, entry models.FeedEntry) {
	if e.notifier == nil {
		return
	}
	e.notifier.FeedMutated(ctx, action, entry)
}
