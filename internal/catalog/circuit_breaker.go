// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/resumefeed/internal/logging"
	"github.com/tomtom215/resumefeed/internal/metrics"
	"github.com/tomtom215/resumefeed/internal/models"
)

// CircuitBreakerStore wraps a Store with circuit breaker protection.
// It is intended for remote catalog backends where the host platform can be
// unavailable or slow; local backends do not need it.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. The timing determines when to
// recover from failures, not data integrity. For unit tests, prefer testing
// the wrapped store directly.
type CircuitBreakerStore struct {
	store Store
	cb    *gobreaker.CircuitBreaker[interface{}]
	name  string
}

// NewCircuitBreakerStore wraps store with a circuit breaker.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerStore(store Store) *CircuitBreakerStore {
	cbName := "catalog-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// A missing entry is a definitive answer from a healthy backend,
		// not an outage signal.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerStore{
		store: store,
		cb:    cb,
		name:  cbName,
	}
}

// execute wraps one catalog call with circuit breaker protection.
func (cbs *CircuitBreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbs.cb.Execute(fn)

	if err != nil && !errors.Is(err, ErrNotFound) {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbs.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Catalog request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbs.name, "failure").Inc()

			counts := cbs.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbs.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}
	if err != nil {
		// ErrNotFound counts as a healthy response.
		metrics.CircuitBreakerRequests.WithLabelValues(cbs.name, "success").Inc()
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbs.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbs.name).Set(0)

	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ListAll lists all feed entries with circuit breaker protection.
func (cbs *CircuitBreakerStore) ListAll(ctx context.Context) ([]models.FeedEntry, error) {
	return castResult[[]models.FeedEntry](cbs.execute(func() (interface{}, error) {
		return cbs.store.ListAll(ctx)
	}))
}

// FindByIdentity looks up one content identity with circuit breaker protection.
func (cbs *CircuitBreakerStore) FindByIdentity(ctx context.Context, contentID string) (*models.FeedEntry, error) {
	return castResult[*models.FeedEntry](cbs.execute(func() (interface{}, error) {
		return cbs.store.FindByIdentity(ctx, contentID)
	}))
}

// Upsert inserts or updates an entry with circuit breaker protection.
func (cbs *CircuitBreakerStore) Upsert(ctx context.Context, entry models.FeedEntry, existingID string) (string, error) {
	return castResult[string](cbs.execute(func() (interface{}, error) {
		return cbs.store.Upsert(ctx, entry, existingID)
	}))
}

// Remove deletes an entry with circuit breaker protection.
func (cbs *CircuitBreakerStore) Remove(ctx context.Context, catalogID string) error {
	_, err := cbs.execute(func() (interface{}, error) {
		return nil, cbs.store.Remove(ctx, catalogID)
	})
	return err
}

// Close closes the underlying store.
func (cbs *CircuitBreakerStore) Close() error {
	return cbs.store.Close()
}
