// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// fakeCatalogAPI is a minimal in-memory implementation of the host catalog
// endpoints used by RemoteStore.
type fakeCatalogAPI struct {
	mu      sync.Mutex
	entries map[string]wireEntry // keyed by catalog id
	nextID  int
	apiKey  string
}

func newFakeCatalogAPI(apiKey string) *fakeCatalogAPI {
	return &fakeCatalogAPI{
		entries: make(map[string]wireEntry),
		apiKey:  apiKey,
	}
}

func (f *fakeCatalogAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v2/entries", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		f.mu.Lock()
		list := make([]wireEntry, 0, len(f.entries))
		for _, e := range f.entries {
			list = append(list, e)
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"entries": list})
	})

	mux.HandleFunc("GET /api/v2/entries/content/{contentID}", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		contentID := r.PathValue("contentID")
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, e := range f.entries {
			if e.ContentID == contentID {
				writeJSON(w, http.StatusOK, e)
				return
			}
		}
		http.Error(w, "not found", http.StatusNotFound)
	})

	mux.HandleFunc("POST /api/v2/entries", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		var e wireEntry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.nextID++
		e.CatalogID = fmt.Sprintf("cat-%d", f.nextID)
		f.entries[e.CatalogID] = e
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]string{"catalog_id": e.CatalogID})
	})

	mux.HandleFunc("PUT /api/v2/entries/{catalogID}", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		catalogID := r.PathValue("catalogID")
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.entries[catalogID]; !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var e wireEntry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		e.CatalogID = catalogID
		f.entries[catalogID] = e
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /api/v2/entries/{catalogID}", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		catalogID := r.PathValue("catalogID")
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.entries[catalogID]; !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		delete(f.entries, catalogID)
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func (f *fakeCatalogAPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	if f.apiKey != "" && r.Header.Get("X-Api-Key") != f.apiKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestRemoteStore(t *testing.T, apiKey string) (*RemoteStore, *fakeCatalogAPI) {
	t.Helper()
	api := newFakeCatalogAPI(apiKey)
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	store, err := NewRemoteStore(RemoteConfig{URL: server.URL, APIKey: apiKey, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewRemoteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, api
}

func TestRemoteStoreConformance(t *testing.T) {
	runStoreConformance(t, func(t *testing.T) Store {
		store, _ := newTestRemoteStore(t, "secret")
		return store
	})
}

func TestRemoteStoreRoundTripsWireFields(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRemoteStore(t, "")

	entry := testEntry("video-1", "series-9", 42*time.Minute+500*time.Millisecond)
	entry.ArtworkURL = "https://img.example/poster.jpg"

	id, err := store.Upsert(ctx, entry, "")
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
	if found.SeriesID != "series-9" {
		t.Errorf("SeriesID = %q, want %q", found.SeriesID, "series-9")
	}
	if found.Position != 42*time.Minute+500*time.Millisecond {
		t.Errorf("Position = %v, want %v", found.Position, 42*time.Minute+500*time.Millisecond)
	}
	if found.Duration != 45*time.Minute {
		t.Errorf("Duration = %v, want %v", found.Duration, 45*time.Minute)
	}
	if found.ArtworkURL != entry.ArtworkURL {
		t.Errorf("ArtworkURL = %q, want %q", found.ArtworkURL, entry.ArtworkURL)
	}
	if !found.EngagedAt.Equal(entry.EngagedAt) {
		t.Errorf("EngagedAt = %v, want %v", found.EngagedAt, entry.EngagedAt)
	}
}

func TestRemoteStoreSendsAPIKey(t *testing.T) {
	ctx := context.Background()

	api := newFakeCatalogAPI("secret")
	server := httptest.NewServer(api.handler())
	defer server.Close()

	wrongKey, err := NewRemoteStore(RemoteConfig{URL: server.URL, APIKey: "wrong"})
	if err != nil {
		t.Fatalf("NewRemoteStore() error = %v", err)
	}
	defer wrongKey.Close()

	if _, err := wrongKey.ListAll(ctx); err == nil {
		t.Error("ListAll() with wrong api key succeeded, want error")
	} else if errors.Is(err, ErrNotFound) {
		t.Errorf("ListAll() with wrong api key error = ErrNotFound, want generic failure")
	}
}

func TestRemoteStoreServerErrorIsNotErrNotFound(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	store, err := NewRemoteStore(RemoteConfig{URL: server.URL})
	if err != nil {
		t.Fatalf("NewRemoteStore() error = %v", err)
	}
	defer store.Close()

	_, err = store.FindByIdentity(ctx, "video-1")
	if err == nil {
		t.Fatal("FindByIdentity() succeeded, want error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("FindByIdentity() error = ErrNotFound, want transport failure")
	}
}

func TestNewRemoteStoreRequiresURL(t *testing.T) {
	if _, err := NewRemoteStore(RemoteConfig{}); err == nil {
		t.Error("NewRemoteStore() with empty url succeeded, want error")
	}
}
