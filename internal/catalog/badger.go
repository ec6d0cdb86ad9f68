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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/resumefeed/internal/metrics"
	"github.com/tomtom215/resumefeed/internal/models"
)

// Key prefixes for BadgerDB storage. The content index maps content identity
// to catalog id so FindByIdentity avoids a full scan.
const (
	entryKeyPrefix   = "entry:"
	contentKeyPrefix = "content:"
)

// BadgerStore implements Store on an embedded BadgerDB. Suitable for
// deployments where Resumefeed itself owns the feed persistence.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB-backed catalog at dir.
// An empty dir opens an in-memory database, used by tests.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// ListAll iterates every stored entry.
func (s *BadgerStore) ListAll(_ context.Context) ([]models.FeedEntry, error) {
	start := time.Now()
	var entries []models.FeedEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry models.FeedEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("decode entry: %w", err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	metrics.ObserveCatalogOp("list_all", BackendBadger, start, err)
	if err != nil {
		return nil, err
	}

	metrics.FeedEntries.Set(float64(len(entries)))
	return entries, nil
}

// FindByIdentity resolves the content index, then loads the entry.
func (s *BadgerStore) FindByIdentity(_ context.Context, contentID string) (*models.FeedEntry, error) {
	start := time.Now()
	var entry models.FeedEntry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(contentKeyPrefix + contentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get content index: %w", err)
		}

		var catalogID string
		if err := item.Value(func(val []byte) error {
			catalogID = string(val)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get([]byte(entryKeyPrefix + catalogID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Dangling index; report absent rather than failing.
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	metrics.ObserveCatalogOp("find_by_identity", BackendBadger, start, ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert writes the entry and its content index in one transaction.
func (s *BadgerStore) Upsert(_ context.Context, entry models.FeedEntry, existingID string) (string, error) {
	start := time.Now()

	catalogID := existingID
	if catalogID == "" {
		catalogID = uuid.New().String()
	}
	entry.CatalogID = catalogID

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if existingID != "" {
			if _, err := txn.Get([]byte(entryKeyPrefix + existingID)); errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			} else if err != nil {
				return fmt.Errorf("get entry: %w", err)
			}
		}
		if err := txn.Set([]byte(entryKeyPrefix+catalogID), data); err != nil {
			return fmt.Errorf("set entry: %w", err)
		}
		if err := txn.Set([]byte(contentKeyPrefix+entry.ContentID), []byte(catalogID)); err != nil {
			return fmt.Errorf("set content index: %w", err)
		}
		return nil
	})
	metrics.ObserveCatalogOp("upsert", BackendBadger, start, ignoreNotFound(err))
	if err != nil {
		return "", err
	}
	return catalogID, nil
}

// Remove deletes the entry and its content index.
func (s *BadgerStore) Remove(_ context.Context, catalogID string) error {
	start := time.Now()

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entryKeyPrefix + catalogID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}

		var entry models.FeedEntry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return err
		}

		if err := txn.Delete([]byte(entryKeyPrefix + catalogID)); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		if err := txn.Delete([]byte(contentKeyPrefix + entry.ContentID)); err != nil {
			return fmt.Errorf("delete content index: %w", err)
		}
		return nil
	})
	metrics.ObserveCatalogOp("remove", BackendBadger, start, ignoreNotFound(err))
	return err
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// ignoreNotFound keeps absent-entry lookups out of the error metrics; absence
// is an expected outcome, not a store failure.
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
