// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/resumefeed/internal/logging"
	"github.com/tomtom215/resumefeed/internal/metrics"
	"github.com/tomtom215/resumefeed/internal/models"
	"github.com/tomtom215/resumefeed/internal/reconcile"
)

// Bus is an in-process pub/sub bus for feed mutation events. It implements
// the engine's notifier contract; publishing is best-effort and never blocks
// or fails a reconcile.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a bus with buffered delivery so slow subscribers cannot
// stall the reconciliation path.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, newWatermillLogger()),
	}
}

// FeedMutated publishes one mutation event. Failures are logged and dropped.
func (b *Bus) FeedMutated(ctx context.Context, action reconcile.Action, entry models.FeedEntry) {
	event := Mutation{
		EventID:    uuid.NewString(),
		Action:     string(action),
		Entry:      entry,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logging.Warn().Err(err).Str("content_id", entry.ContentID).Msg("Failed to encode feed mutation event")
		return
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(TopicFeedMutations, msg); err != nil {
		logging.Warn().Err(err).Str("content_id", entry.ContentID).Msg("Failed to publish feed mutation event")
		return
	}
	metrics.EventsPublished.WithLabelValues(string(action)).Inc()
}

// Subscribe returns a channel of feed mutation messages. The subscription
// ends when ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicFeedMutations)
}

// Close shuts the bus down and ends all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
