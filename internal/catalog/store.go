// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

// Package catalog defines the contract to the continuation feed store and
// provides its backends: an in-memory store, an embedded BadgerDB store, and
// an HTTP client for a host-platform catalog API (optionally wrapped in a
// circuit breaker).
//
// The reconciliation engine only ever talks to the Store interface. Every
// operation must be atomic from the caller's perspective: a failed call
// leaves no partial write observable.
package catalog

import (
	"context"
	"errors"

	"github.com/tomtom215/resumefeed/internal/models"
)

// Backend names accepted by the config and reported in metrics.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRemote = "remote"
)

// ErrNotFound is returned when no entry matches the requested identity or
// catalog id.
var ErrNotFound = errors.New("catalog: entry not found")

// Store is the narrow interface over the continuation feed that the
// reconciliation engine consumes.
//
// FindByIdentity is semantically equivalent to filtering ListAll by content
// identity; backends may index it but the engine does not assume they do.
type Store interface {
	// ListAll returns a snapshot of all current feed entries. Ordering is
	// not guaranteed.
	ListAll(ctx context.Context) ([]models.FeedEntry, error)

	// FindByIdentity returns the entry for the given content identity, or
	// ErrNotFound.
	FindByIdentity(ctx context.Context, contentID string) (*models.FeedEntry, error)

	// Upsert writes an entry. With a non-empty existingID it updates that
	// entry in place and returns the same id; otherwise it inserts and
	// returns the newly assigned catalog id. Updating a missing id returns
	// ErrNotFound.
	Upsert(ctx context.Context, entry models.FeedEntry, existingID string) (string, error)

	// Remove deletes the entry with the given catalog id. Returns
	// ErrNotFound if no such entry exists.
	Remove(ctx context.Context, catalogID string) error

	// Close releases backend resources.
	Close() error
}
