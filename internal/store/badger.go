// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the BadgerDB-backed persistence layer for
// experiment assignments and tracking counters.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/trendspotter/trendspotter/internal/experiment"
	"github.com/trendspotter/trendspotter/internal/logging"
	"github.com/trendspotter/trendspotter/internal/metrics"
)

// Key prefixes for BadgerDB storage.
const (
	assignmentKeyPrefix = "assign:"
	counterKeyPrefix    = "expmetric:"
)

// conflictRetries bounds optimistic transaction retries under contention.
const conflictRetries = 10

// assignmentRecord is the persisted form of one sticky assignment.
type assignmentRecord struct {
	Variant    string    `json:"variant"`
	AssignedAt time.Time `json:"assigned_at"`
}

// BadgerStore implements experiment.Store on BadgerDB, giving assignments
// and counters durability across restarts.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerStore wraps an open BadgerDB handle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logging.With().Str("component", "store").Logger(),
	}
}

// Open opens (or creates) a BadgerDB at path with logging routed through
// zerolog. The caller owns the returned handle and must Close it.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{logging.With().Str("component", "badger").Logger()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	return db, nil
}

// GetOrCreateAssignment implements experiment.Store. The read and the
// conditional write share one transaction; a conflicting concurrent
// create triggers a retry that observes the winner's record.
func (s *BadgerStore) GetOrCreateAssignment(ctx context.Context, exp, subjectID string, create func() string) (string, bool, error) {
	start := time.Now()
	defer func() {
		metrics.StoreOperationDuration.WithLabelValues("get_or_create_assignment").Observe(time.Since(start).Seconds())
	}()

	key := assignmentKey(exp, subjectID)
	for attempt := 0; attempt < conflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		var rec assignmentRecord
		var created bool
		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err == nil {
				created = false
				return item.Value(func(val []byte) error {
					return json.Unmarshal(val, &rec)
				})
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("get assignment: %w", err)
			}

			rec = assignmentRecord{Variant: create(), AssignedAt: time.Now().UTC()}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal assignment: %w", err)
			}
			created = true
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			metrics.StoreConflictRetries.Inc()
			continue
		}
		if err != nil {
			return "", false, err
		}
		return rec.Variant, created, nil
	}
	return "", false, fmt.Errorf("assignment for %s/%s: transaction conflict persisted after %d retries", exp, subjectID, conflictRetries)
}

// GetAssignment implements experiment.Store.
func (s *BadgerStore) GetAssignment(_ context.Context, exp, subjectID string) (string, error) {
	var rec assignmentRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(assignmentKey(exp, subjectID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get assignment: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return "", err
	}
	return rec.Variant, nil
}

// ClearAssignments implements experiment.Store. It scans the experiment's
// assignment prefix and deletes in batches.
func (s *BadgerStore) ClearAssignments(ctx context.Context, exp string) error {
	prefix := []byte(assignmentKeyPrefix + exp + ":")

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning assignments: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("deleting assignment: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing deletes: %w", err)
	}
	s.logger.Info().Str("experiment", exp).Int("cleared", len(keys)).Msg("Assignments cleared")
	return nil
}

// AddImpressions implements experiment.Store.
func (s *BadgerStore) AddImpressions(ctx context.Context, exp, variant string, delta uint64) error {
	return s.addCounter(ctx, exp, variant, delta, 0)
}

// AddConversions implements experiment.Store.
func (s *BadgerStore) AddConversions(ctx context.Context, exp, variant string, delta uint64) error {
	return s.addCounter(ctx, exp, variant, 0, delta)
}

// addCounter applies a read-modify-write increment with conflict retry.
func (s *BadgerStore) addCounter(ctx context.Context, exp, variant string, impressions, conversions uint64) error {
	start := time.Now()
	defer func() {
		metrics.StoreOperationDuration.WithLabelValues("add_counter").Observe(time.Since(start).Seconds())
	}()

	key := counterKey(exp, variant)
	for attempt := 0; attempt < conflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			var c experiment.Counters
			item, err := txn.Get(key)
			if err == nil {
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &c)
				}); err != nil {
					return fmt.Errorf("unmarshal counters: %w", err)
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("get counters: %w", err)
			}

			c.Impressions += impressions
			c.Conversions += conversions
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshal counters: %w", err)
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			metrics.StoreConflictRetries.Inc()
			continue
		}
		return err
	}
	return fmt.Errorf("counter for %s/%s: transaction conflict persisted after %d retries", exp, variant, conflictRetries)
}

// GetCounters implements experiment.Store.
func (s *BadgerStore) GetCounters(ctx context.Context, exp string) (map[string]experiment.Counters, error) {
	prefix := []byte(counterKeyPrefix + exp + ":")
	out := make(map[string]experiment.Counters)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			variant := string(item.Key()[len(prefix):])
			var c experiment.Counters
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return fmt.Errorf("unmarshal counters for %q: %w", variant, err)
			}
			out[variant] = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func assignmentKey(exp, subjectID string) []byte {
	return []byte(assignmentKeyPrefix + exp + ":" + subjectID)
}

func counterKey(exp, variant string) []byte {
	return []byte(counterKeyPrefix + exp + ":" + variant)
}

// badgerLogger adapts zerolog to badger's Logger interface.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msgf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug().Msgf(format, args...)
}
