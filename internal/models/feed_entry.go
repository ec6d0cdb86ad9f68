// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package models

import "time"

// FeedEntry is one persisted row in the continuation feed. CatalogID is
// assigned by the catalog store on insert and never changes afterwards;
// ContentID is the dedup key, at most one entry exists per content identity.
//
// Display metadata (Title, Duration, ArtworkURL) is copied from the Video at
// mutation time and is not independently owned by the feed.
type FeedEntry struct {
	CatalogID string        `json:"catalog_id"`
	ContentID string        `json:"content_id"`
	SeriesID  string        `json:"series_id,omitempty"`
	Position  time.Duration `json:"position"`
	EngagedAt time.Time     `json:"engaged_at"`

	Title      string        `json:"title"`
	Duration   time.Duration `json:"duration"`
	ArtworkURL string        `json:"artwork_url,omitempty"`
}

// NewFeedEntry builds an unsaved feed entry for a video at the given
// position. The catalog id is left empty; the store assigns it on insert.
func NewFeedEntry(video *Video, position time.Duration, engagedAt time.Time) FeedEntry {
	return FeedEntry{
		ContentID:  video.ID,
		SeriesID:   video.SeriesID,
		Position:   position,
		EngagedAt:  engagedAt.UTC(),
		Title:      video.Title,
		Duration:   video.Duration,
		ArtworkURL: video.ArtworkURL,
	}
}

// MoreRecentThan reports whether e should be preferred over other when both
// belong to the same series and only one may remain. Greater engagement
// timestamp wins; ties fall to the greater playback position, then to the
// lower catalog id so the outcome is deterministic.
func (e *FeedEntry) MoreRecentThan(other *FeedEntry) bool {
	if !e.EngagedAt.Equal(other.EngagedAt) {
		return e.EngagedAt.After(other.EngagedAt)
	}
	if e.Position != other.Position {
		return e.Position > other.Position
	}
	return e.CatalogID < other.CatalogID
}
