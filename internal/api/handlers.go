// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/resumefeed/internal/catalog"
	"github.com/tomtom215/resumefeed/internal/config"
	"github.com/tomtom215/resumefeed/internal/metrics"
	"github.com/tomtom215/resumefeed/internal/reconcile"
)

// maxRequestBodySize bounds playback report bodies. A report with a full
// series episode list stays well under this.
const maxRequestBodySize = 1 << 20

// Handler serves the playback reporting and feed inspection endpoints.
type Handler struct {
	engine *reconcile.Engine
	store  catalog.Store
}

// NewHandler creates the API handler.
func NewHandler(engine *reconcile.Engine, store catalog.Store) *Handler {
	return &Handler{engine: engine, store: store}
}

// Router assembles the HTTP router with the standard middleware stack.
func (h *Handler) Router(security config.SecurityConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(Metrics)
	r.Use(RateLimit(security))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/playback", h.handlePlayback)
		r.Get("/feed", h.handleFeed)
		r.Delete("/feed/{catalogID}", h.handleRemoveEntry)
	})

	return r
}

// handlePlayback reconciles one playback report against the feed.
func (h *Handler) handlePlayback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req playbackRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		rw.BadRequest("Malformed request body: " + err.Error())
		return
	}

	var lookup reconcile.SeriesLookup
	if l := newEpisodeLookup(req.SeriesEpisodes); l != nil {
		lookup = l
	}

	result, err := h.engine.Reconcile(r.Context(), req.Video.toVideo(), req.toReport(), lookup)
	switch {
	case errors.Is(err, reconcile.ErrUnsupportedContentKind):
		rw.UnprocessableEntity(err.Error())
	case errors.Is(err, reconcile.ErrInvalidInput):
		rw.ValidationError(err.Error())
	case err != nil:
		rw.CatalogError(err)
	default:
		rw.Success(result)
	}
}

// handleFeed returns the current continuation feed snapshot.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	entries, err := h.store.ListAll(r.Context())
	if err != nil {
		rw.CatalogError(err)
		return
	}
	metrics.FeedEntries.Set(float64(len(entries)))

	responses := make([]feedEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toFeedEntryResponse(entry))
	}
	rw.Success(map[string]interface{}{
		"entries": responses,
		"count":   len(responses),
	})
}

// handleRemoveEntry removes a feed entry by catalog id.
func (h *Handler) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	catalogID := chi.URLParam(r, "catalogID")
	if catalogID == "" {
		rw.BadRequest("Catalog id is required")
		return
	}

	err := h.store.Remove(r.Context(), catalogID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		rw.NotFound("No feed entry with catalog id " + catalogID)
	case err != nil:
		rw.CatalogError(err)
	default:
		rw.NoContent()
	}
}

// handleHealth reports process liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}
