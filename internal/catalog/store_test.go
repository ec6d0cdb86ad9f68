// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/resumefeed/internal/models"
)

func testEntry(contentID, seriesID string, position time.Duration) models.FeedEntry {
	return models.FeedEntry{
		ContentID: contentID,
		SeriesID:  seriesID,
		Position:  position,
		EngagedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Title:     "Test Title",
		Duration:  45 * time.Minute,
	}
}

// runStoreConformance exercises the Store contract shared by all backends.
func runStoreConformance(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert and find by identity", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		id, err := store.Upsert(ctx, testEntry("video-1", "", 10*time.Minute), "")
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if id == "" {
			t.Fatal("Upsert() returned empty catalog id")
		}

		found, err := store.FindByIdentity(ctx, "video-1")
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if found.CatalogID != id {
			t.Errorf("CatalogID = %q, want %q", found.CatalogID, id)
		}
		if found.Position != 10*time.Minute {
			t.Errorf("Position = %v, want %v", found.Position, 10*time.Minute)
		}
		if found.Title != "Test Title" {
			t.Errorf("Title = %q, want %q", found.Title, "Test Title")
		}
	})

	t.Run("find unknown identity returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if _, err := store.FindByIdentity(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByIdentity() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update in place keeps catalog id", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		id, err := store.Upsert(ctx, testEntry("video-1", "", 10*time.Minute), "")
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		updated := testEntry("video-1", "", 20*time.Minute)
		updated.CatalogID = id
		gotID, err := store.Upsert(ctx, updated, id)
		if err != nil {
			t.Fatalf("Upsert() update error = %v", err)
		}
		if gotID != id {
			t.Errorf("Upsert() update returned id %q, want %q", gotID, id)
		}

		found, err := store.FindByIdentity(ctx, "video-1")
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if found.Position != 20*time.Minute {
			t.Errorf("Position = %v, want %v", found.Position, 20*time.Minute)
		}

		entries, err := store.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("ListAll() returned %d entries, want 1", len(entries))
		}
	})

	t.Run("update with stale id returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if _, err := store.Upsert(ctx, testEntry("video-1", "", 0), "gone"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Upsert() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("remove deletes entry and identity index", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		id, err := store.Upsert(ctx, testEntry("video-1", "series-9", 5*time.Minute), "")
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		if err := store.Remove(ctx, id); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if _, err := store.FindByIdentity(ctx, "video-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByIdentity() after remove error = %v, want ErrNotFound", err)
		}

		entries, err := store.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("ListAll() returned %d entries after remove, want 0", len(entries))
		}
	})

	t.Run("remove unknown id returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if err := store.Remove(ctx, "gone"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Remove() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list all returns every entry", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for _, contentID := range []string{"a", "b", "c"} {
			if _, err := store.Upsert(ctx, testEntry(contentID, "", time.Minute), ""); err != nil {
				t.Fatalf("Upsert(%q) error = %v", contentID, err)
			}
		}

		entries, err := store.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("ListAll() returned %d entries, want 3", len(entries))
		}

		seen := make(map[string]bool)
		for _, e := range entries {
			seen[e.ContentID] = true
		}
		for _, contentID := range []string{"a", "b", "c"} {
			if !seen[contentID] {
				t.Errorf("ListAll() missing content id %q", contentID)
			}
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreConformance(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestBadgerStore(t *testing.T) {
	runStoreConformance(t, func(t *testing.T) Store {
		store, err := NewBadgerStore("")
		if err != nil {
			t.Fatalf("NewBadgerStore() error = %v", err)
		}
		return store
	})
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	id, err := store.Upsert(ctx, testEntry("video-1", "", 7*time.Minute), "")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("NewBadgerStore() reopen error = %v", err)
	}
	defer reopened.Close()

	found, err := reopened.FindByIdentity(ctx, "video-1")
	if err != nil {
		t.Fatalf("FindByIdentity() after reopen error = %v", err)
	}
	if found.CatalogID != id {
		t.Errorf("CatalogID = %q, want %q", found.CatalogID, id)
	}
}

func TestCircuitBreakerStoreDelegates(t *testing.T) {
	ctx := context.Background()
	store := NewCircuitBreakerStore(NewMemoryStore())
	defer store.Close()

	id, err := store.Upsert(ctx, testEntry("video-1", "", time.Minute), "")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	found, err := store.FindByIdentity(ctx, "video-1")
	if err != nil {
		t.Fatalf("FindByIdentity() error = %v", err)
	}
	if found.CatalogID != id {
		t.Errorf("CatalogID = %q, want %q", found.CatalogID, id)
	}

	// Missing entries pass through as ErrNotFound and do not trip the breaker.
	if _, err := store.FindByIdentity(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByIdentity() error = %v, want ErrNotFound", err)
	}

	entries, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ListAll() returned %d entries, want 1", len(entries))
	}

	if err := store.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
}
