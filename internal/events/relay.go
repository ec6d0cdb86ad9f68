// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package events

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/resumefeed/internal/logging"
	"github.com/tomtom215/resumefeed/internal/metrics"
)

// Relay consumes feed mutation events and emits a structured audit log line
// per mutation. It runs as a supervised service.
type Relay struct {
	bus *Bus
}

// NewRelay creates a relay reading from bus.
func NewRelay(bus *Bus) *Relay {
	return &Relay{bus: bus}
}

// Serve consumes events until ctx is cancelled or the bus closes.
func (r *Relay) Serve(ctx context.Context) error {
	messages, err := r.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("relay: subscribe: %w", err)
	}

	logging.Info().Msg("Feed event relay started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				logging.Info().Msg("Feed event relay stopped: bus closed")
				return nil
			}
			r.handle(msg.Payload)
			msg.Ack()
		}
	}
}

func (r *Relay) handle(payload []byte) {
	var event Mutation
	if err := json.Unmarshal(payload, &event); err != nil {
		logging.Warn().Err(err).Msg("Discarding malformed feed mutation event")
		return
	}

	logging.Info().
		Str("event_id", event.EventID).
		Str("action", event.Action).
		Str("content_id", event.Entry.ContentID).
		Str("catalog_id", event.Entry.CatalogID).
		Str("series_id", event.Entry.SeriesID).
		Dur("position", event.Entry.Position).
		Time("occurred_at", event.OccurredAt).
		Msg("Feed mutation")
	metrics.EventsRelayed.Inc()
}

func (r *Relay) String() string {
	return "feed-event-relay"
}
