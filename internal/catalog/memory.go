// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/resumefeed/internal/models"
)

// MemoryStore is a map-backed Store. It serves as the reference
// implementation of the catalog contract, as the default backend for
// development, and as the store used throughout the engine tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.FeedEntry // keyed by catalog id
}

// NewMemoryStore creates an empty in-memory catalog store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.FeedEntry)}
}

// ListAll returns a snapshot of all entries.
func (s *MemoryStore) ListAll(_ context.Context) ([]models.FeedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.FeedEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

// FindByIdentity scans for the entry with the given content identity.
func (s *MemoryStore) FindByIdentity(_ context.Context, contentID string) (*models.FeedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ContentID == contentID {
			found := entry
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// Upsert inserts a new entry or updates an existing one in place.
func (s *MemoryStore) Upsert(_ context.Context, entry models.FeedEntry, existingID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID != "" {
		if _, ok := s.entries[existingID]; !ok {
			return "", ErrNotFound
		}
		entry.CatalogID = existingID
		s.entries[existingID] = entry
		return existingID, nil
	}

	entry.CatalogID = uuid.New().String()
	s.entries[entry.CatalogID] = entry
	return entry.CatalogID, nil
}

// Remove deletes the entry with the given catalog id.
func (s *MemoryStore) Remove(_ context.Context, catalogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[catalogID]; !ok {
		return ErrNotFound
	}
	delete(s.entries, catalogID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
