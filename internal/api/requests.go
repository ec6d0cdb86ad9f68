// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package api

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/resumefeed/internal/models"
)

// videoRequest is the wire representation of a video. Durations and
// positions travel as milliseconds.
type videoRequest struct {
	ID                 string `json:"id"`
	Kind               string `json:"kind"`
	SeriesID           string `json:"series_id,omitempty"`
	SeasonNumber       int    `json:"season_number,omitempty"`
	EpisodeNumber      int    `json:"episode_number,omitempty"`
	Title              string `json:"title"`
	DurationMS         int64  `json:"duration_ms"`
	EndCreditsOffsetMS int64  `json:"end_credits_offset_ms,omitempty"`
	ArtworkURL         string `json:"artwork_url,omitempty"`
	FullyWatched       bool   `json:"fully_watched,omitempty"`
}

func (v videoRequest) toVideo() *models.Video {
	return &models.Video{
		ID:               v.ID,
		Kind:             models.ContentKind(v.Kind),
		SeriesID:         v.SeriesID,
		SeasonNumber:     v.SeasonNumber,
		EpisodeNumber:    v.EpisodeNumber,
		Title:            v.Title,
		Duration:         time.Duration(v.DurationMS) * time.Millisecond,
		EndCreditsOffset: time.Duration(v.EndCreditsOffsetMS) * time.Millisecond,
		ArtworkURL:       v.ArtworkURL,
		FullyWatched:     v.FullyWatched,
	}
}

// playbackRequest is the body of POST /api/v1/playback: the video being
// played, the observed position and player state, and optionally the other
// episodes of the video's series so a finished episode's successor can be
// promoted.
type playbackRequest struct {
	Video          videoRequest   `json:"video"`
	PositionMS     int64          `json:"position_ms"`
	State          string         `json:"state"`
	SeriesEpisodes []videoRequest `json:"series_episodes,omitempty"`
}

func (p playbackRequest) toReport() *models.PlaybackReport {
	return &models.PlaybackReport{
		VideoID:  p.Video.ID,
		Position: time.Duration(p.PositionMS) * time.Millisecond,
		State:    models.PlayerState(p.State),
	}
}

// episodeLookup serves successor lookups from the episode list supplied in
// the request, ordered by season then episode number.
type episodeLookup struct {
	episodes []*models.Video
}

func newEpisodeLookup(requests []videoRequest) *episodeLookup {
	if len(requests) == 0 {
		return nil
	}
	episodes := make([]*models.Video, 0, len(requests))
	for _, req := range requests {
		episodes = append(episodes, req.toVideo())
	}
	sort.Slice(episodes, func(i, j int) bool {
		if episodes[i].SeasonNumber != episodes[j].SeasonNumber {
			return episodes[i].SeasonNumber < episodes[j].SeasonNumber
		}
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})
	return &episodeLookup{episodes: episodes}
}

// NextUnwatchedEpisode returns the first episode of seriesID ordered after
// the given one that is not marked fully watched, or nil when none remains.
func (l *episodeLookup) NextUnwatchedEpisode(ctx context.Context, seriesID string, after *models.Video) (*models.Video, error) {
	for _, ep := range l.episodes {
		if ep.SeriesID != seriesID || ep.FullyWatched {
			continue
		}
		if ep.SeasonNumber < after.SeasonNumber {
			continue
		}
		if ep.SeasonNumber == after.SeasonNumber && ep.EpisodeNumber <= after.EpisodeNumber {
			continue
		}
		return ep, nil
	}
	return nil, nil
}

// feedEntryResponse is the wire representation of a feed entry.
type feedEntryResponse struct {
	CatalogID  string    `json:"catalog_id"`
	ContentID  string    `json:"content_id"`
	SeriesID   string    `json:"series_id,omitempty"`
	PositionMS int64     `json:"position_ms"`
	EngagedAt  time.Time `json:"engaged_at"`
	Title      string    `json:"title"`
	DurationMS int64     `json:"duration_ms"`
	ArtworkURL string    `json:"artwork_url,omitempty"`
}

func toFeedEntryResponse(entry models.FeedEntry) feedEntryResponse {
	return feedEntryResponse{
		CatalogID:  entry.CatalogID,
		ContentID:  entry.ContentID,
		SeriesID:   entry.SeriesID,
		PositionMS: entry.Position.Milliseconds(),
		EngagedAt:  entry.EngagedAt,
		Title:      entry.Title,
		DurationMS: entry.Duration.Milliseconds(),
		ArtworkURL: entry.ArtworkURL,
	}
}
