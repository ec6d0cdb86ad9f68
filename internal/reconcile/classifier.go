// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package reconcile

import (
	"math"
	"time"

	"github.com/tomtom215/resumefeed/internal/models"
)

// PlaybackStatus is the lifecycle bucket a playback report falls into.
type PlaybackStatus string

const (
	StatusNotStarted PlaybackStatus = "not_started"
	StatusInProgress PlaybackStatus = "in_progress"
	StatusFinished   PlaybackStatus = "finished"
)

// Thresholds configures when a video counts as started. A video is started
// once the position reaches the earlier of the two thresholds: for short
// videos the fraction dominates, for long videos the absolute minimum does.
type Thresholds struct {
	// StartedFraction of the total duration that must have elapsed.
	StartedFraction float64
	// StartedMinimum is the absolute elapsed time cap on the fraction rule.
	StartedMinimum time.Duration
}

// DefaultThresholds returns the reference classifier configuration:
// started at 3% of the duration or 2 minutes in, whichever comes first.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StartedFraction: 0.03,
		StartedMinimum:  2 * time.Minute,
	}
}

// startedThreshold computes the position at which the video counts as
// started.
func (t Thresholds) startedThreshold(duration time.Duration) time.Duration {
	fractional := time.Duration(math.Round(t.StartedFraction * float64(duration)))
	if t.StartedMinimum < fractional {
		return t.StartedMinimum
	}
	return fractional
}

// Classify maps a playback observation to its lifecycle bucket. It is a pure
// function over validated inputs.
//
// A report is Finished when the player reports the ended state, or when the
// position has passed the video's end-credits marker (when one is known).
// Otherwise it is InProgress once past the started threshold, and NotStarted
// before that.
func (t Thresholds) Classify(video *models.Video, report *models.PlaybackReport) PlaybackStatus {
	if report.State == models.PlayerStateEnded {
		return StatusFinished
	}
	if video.EndCreditsOffset > 0 && report.Position >= video.EndCreditsOffset {
		return StatusFinished
	}
	if report.Position >= t.startedThreshold(video.Duration) {
		return StatusInProgress
	}
	return StatusNotStarted
}
