// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/resumefeed/internal/models"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024

// RemoteStore implements Store against a host-platform catalog CRUD API.
// All methods are safe for concurrent use.
//
// Endpoint layout:
//
//	GET    {base}/api/v2/entries                     list all entries
//	GET    {base}/api/v2/entries/content/{contentID} find by content identity
//	POST   {base}/api/v2/entries                     insert, returns catalog id
//	PUT    {base}/api/v2/entries/{catalogID}         update in place
//	DELETE {base}/api/v2/entries/{catalogID}         remove
type RemoteStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// RemoteConfig holds the connection settings for the host catalog API.
type RemoteConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewRemoteStore creates a catalog client for the host platform's feed API.
func NewRemoteStore(cfg RemoteConfig) (*RemoteStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote catalog: url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("remote catalog: invalid url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RemoteStore{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// wireEntry is the host API's representation of a feed entry. Positions and
// durations travel as milliseconds on the wire.
type wireEntry struct {
	CatalogID  string    `json:"catalog_id"`
	ContentID  string    `json:"content_id"`
	SeriesID   string    `json:"series_id,omitempty"`
	PositionMS int64     `json:"position_ms"`
	EngagedAt  time.Time `json:"engaged_at"`
	Title      string    `json:"title"`
	DurationMS int64     `json:"duration_ms"`
	ArtworkURL string    `json:"artwork_url,omitempty"`
}

func toWire(entry models.FeedEntry) wireEntry {
	return wireEntry{
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

func fromWire(w wireEntry) models.FeedEntry {
	return models.FeedEntry{
		CatalogID:  w.CatalogID,
		ContentID:  w.ContentID,
		SeriesID:   w.SeriesID,
		Position:   time.Duration(w.PositionMS) * time.Millisecond,
		EngagedAt:  w.EngagedAt,
		Title:      w.Title,
		Duration:   time.Duration(w.DurationMS) * time.Millisecond,
		ArtworkURL: w.ArtworkURL,
	}
}

// ListAll fetches the full feed snapshot.
func (s *RemoteStore) ListAll(ctx context.Context) ([]models.FeedEntry, error) {
	var payload struct {
		Entries []wireEntry `json:"entries"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/v2/entries", nil, &payload); err != nil {
		return nil, err
	}

	entries := make([]models.FeedEntry, 0, len(payload.Entries))
	for _, w := range payload.Entries {
		entries = append(entries, fromWire(w))
	}
	return entries, nil
}

// FindByIdentity fetches the entry for one content identity.
func (s *RemoteStore) FindByIdentity(ctx context.Context, contentID string) (*models.FeedEntry, error) {
	var w wireEntry
	err := s.do(ctx, http.MethodGet, "/api/v2/entries/content/"+url.PathEscape(contentID), nil, &w)
	if err != nil {
		return nil, err
	}
	entry := fromWire(w)
	return &entry, nil
}

// Upsert inserts or updates an entry on the host catalog.
func (s *RemoteStore) Upsert(ctx context.Context, entry models.FeedEntry, existingID string) (string, error) {
	body := toWire(entry)

	if existingID != "" {
		body.CatalogID = existingID
		if err := s.do(ctx, http.MethodPut, "/api/v2/entries/"+url.PathEscape(existingID), body, nil); err != nil {
			return "", err
		}
		return existingID, nil
	}

	var created struct {
		CatalogID string `json:"catalog_id"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/v2/entries", body, &created); err != nil {
		return "", err
	}
	if created.CatalogID == "" {
		return "", fmt.Errorf("remote catalog: insert returned no catalog id")
	}
	return created.CatalogID, nil
}

// Remove deletes an entry on the host catalog.
func (s *RemoteStore) Remove(ctx context.Context, catalogID string) error {
	return s.do(ctx, http.MethodDelete, "/api/v2/entries/"+url.PathEscape(catalogID), nil, nil)
}

// Close releases idle connections.
func (s *RemoteStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do issues one request against the host API and decodes the response into
// out (when non-nil). HTTP 404 maps to ErrNotFound.
func (s *RemoteStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote catalog: encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("remote catalog: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote catalog: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		detail := readBodyForError(resp.Body)
		return fmt.Errorf("remote catalog: %s %s: status %d: %s", method, path, resp.StatusCode, detail)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote catalog: decode response: %w", err)
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize of the response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
