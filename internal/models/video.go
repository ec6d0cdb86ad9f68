// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

// Package models defines the data structures shared across Resumefeed:
// videos, playback reports, and continuation feed entries.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ContentKind classifies a video as a standalone title or an episode that
// belongs to a series. The continuation feed is defined only for these two
// kinds.
type ContentKind string

const (
	ContentKindStandalone ContentKind = "standalone"
	ContentKindEpisode    ContentKind = "episode"
)

// Valid reports whether k is one of the supported content kinds.
func (k ContentKind) Valid() bool {
	return k == ContentKindStandalone || k == ContentKindEpisode
}

// PlayerState is the lifecycle state reported by the player alongside a
// playback position.
type PlayerState string

const (
	PlayerStatePaused  PlayerState = "paused"
	PlayerStateEnded   PlayerState = "ended"
	PlayerStateUnknown PlayerState = "unknown"
)

// Valid reports whether s is a recognized player state.
func (s PlayerState) Valid() bool {
	switch s {
	case PlayerStatePaused, PlayerStateEnded, PlayerStateUnknown:
		return true
	}
	return false
}

// Video describes a playable title as known to the title catalog. It is
// read-only input to the reconciliation engine; display metadata is copied
// into feed entries at mutation time.
//
// SeriesID, SeasonNumber and EpisodeNumber are meaningful only when Kind is
// ContentKindEpisode. EndCreditsOffset marks the position past which the
// title counts as finished regardless of the reported player state; zero
// means no credits marker is known.
type Video struct {
	ID               string        `json:"id"`
	Kind             ContentKind   `json:"kind"`
	SeriesID         string        `json:"series_id,omitempty"`
	SeasonNumber     int           `json:"season_number,omitempty"`
	EpisodeNumber    int           `json:"episode_number,omitempty"`
	Title            string        `json:"title"`
	Duration         time.Duration `json:"duration"`
	EndCreditsOffset time.Duration `json:"end_credits_offset,omitempty"`
	ArtworkURL       string        `json:"artwork_url,omitempty"`

	// FullyWatched marks an episode the viewer has already completed. Used
	// when selecting a successor episode for promotion.
	FullyWatched bool `json:"fully_watched,omitempty"`
}

// IsEpisode reports whether the video is part of a series.
func (v *Video) IsEpisode() bool {
	return v.Kind == ContentKindEpisode
}

// Validate checks the structural invariants of a video.
func (v *Video) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return errors.New("video id is required")
	}
	if v.Duration < 0 {
		return fmt.Errorf("video %s: negative duration %v", v.ID, v.Duration)
	}
	if v.EndCreditsOffset < 0 {
		return fmt.Errorf("video %s: negative end-credits offset %v", v.ID, v.EndCreditsOffset)
	}
	if v.Kind == ContentKindEpisode && strings.TrimSpace(v.SeriesID) == "" {
		return fmt.Errorf("video %s: episode without series id", v.ID)
	}
	return nil
}

// PlaybackReport is a single playback observation for a video: the elapsed
// position and the player state at the time of the report. Reports are
// transient; the engine never persists them.
type PlaybackReport struct {
	VideoID  string        `json:"video_id"`
	Position time.Duration `json:"position"`
	State    PlayerState   `json:"state"`
}

// Validate checks a report against the video it refers to.
func (r *PlaybackReport) Validate(video *Video) error {
	if r.Position < 0 {
		return fmt.Errorf("report for %s: negative position %v", r.VideoID, r.Position)
	}
	if r.Position > video.Duration {
		return fmt.Errorf("report for %s: position %v exceeds duration %v", r.VideoID, r.Position, video.Duration)
	}
	if r.VideoID != "" && r.VideoID != video.ID {
		return fmt.Errorf("report video id %s does not match video %s", r.VideoID, video.ID)
	}
	if r.State != "" && !r.State.Valid() {
		return fmt.Errorf("report for %s: unknown player state %q", r.VideoID, r.State)
	}
	return nil
}
