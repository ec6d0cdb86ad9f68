// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

// Package events carries feed mutation notifications over an in-process
// pub/sub bus. Consumers inside the process (the relay, future webhooks)
// subscribe without coupling to the reconciliation engine.
package events

import (
	"time"

	"github.com/tomtom215/resumefeed/internal/models"
)

// TopicFeedMutations is the topic feed mutation events are published on.
const TopicFeedMutations = "feed.mutations"

// Mutation describes one applied catalog mutation. Action mirrors the
// engine's resulting action ("upserted" or "removed").
type Mutation struct {
	EventID    string           `json:"event_id"`
	Action     string           `json:"action"`
	Entry      models.FeedEntry `json:"entry"`
	OccurredAt time.Time        `json:"occurred_at"`
}
