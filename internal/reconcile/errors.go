// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package reconcile

import "errors"

var (
	// ErrInvalidInput marks a report or video that fails structural
	// validation. Rejected before any catalog call; retrying without fixing
	// the input will fail again.
	ErrInvalidInput = errors.New("reconcile: invalid input")

	// ErrUnsupportedContentKind marks a video whose kind is neither
	// standalone nor episode. Not retryable.
	ErrUnsupportedContentKind = errors.New("reconcile: unsupported content kind")
)
