// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package snapshot keeps every collected batch in BadgerDB so a run can be
// replayed later against exactly the same input.
//
// Keys:
//
//	batch:<id>                              full Entry as JSON
//	idx:<category>:<as_of unix nanos>:<id>  Summary as JSON
//
// The index is zero-padded so lexical order is chronological.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/metrics"
	"github.com/tomtom215/shortlist/internal/pipeline"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("snapshot store is closed")

	// ErrNotFound is returned when no batch has the requested ID.
	ErrNotFound = errors.New("snapshot not found")

	// ErrEmptyID is returned when an empty ID is supplied.
	ErrEmptyID = errors.New("snapshot ID cannot be empty")
)

const (
	prefixBatch = "batch:"
	prefixIndex = "idx:"
)

// Config configures the store.
type Config struct {
	Path        string
	InMemory    bool
	SyncWrites  bool
	Compression bool
	// TTL expires snapshots after the given age. Zero keeps them forever.
	TTL          time.Duration
	GCRatio      float64
	CloseTimeout time.Duration
}

// Entry is one stored batch.
type Entry struct {
	ID      string         `json:"id"`
	SavedAt time.Time      `json:"saved_at"`
	Batch   pipeline.Batch `json:"batch"`
}

// Summary describes a stored batch without its payload.
type Summary struct {
	ID           string    `json:"id"`
	Category     string    `json:"category"`
	Keyword      string    `json:"keyword"`
	AsOf         time.Time `json:"as_of"`
	SavedAt      time.Time `json:"saved_at"`
	Observations int       `json:"observations"`
	Mentions     int       `json:"mentions"`
}

// Store persists batches.
type Store struct {
	db     *badger.DB
	cfg    Config
	mu     sync.RWMutex
	closed bool
	logger zerolog.Logger
}

// Open opens or creates the store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("snapshot: path is required unless in-memory")
	}
	if cfg.GCRatio <= 0 {
		cfg.GCRatio = 0.5
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 30 * time.Second
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "snapshot").Logger(),
	}
	s.logger.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Snapshot store opened")
	return s, nil
}

// Save stores batch under id.
//
//nolint:gocritic // Batch is stored by value
func (s *Store) Save(ctx context.Context, id string, batch pipeline.Batch) error {
	err := s.save(ctx, id, batch)
	metrics.RecordSnapshot("save", err)
	return err
}

//nolint:gocritic // Batch is stored by value
func (s *Store) save(ctx context.Context, id string, batch pipeline.Batch) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := s.check(ctx); err != nil {
		return err
	}

	entry := Entry{ID: id, SavedAt: time.Now().UTC(), Batch: batch}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	summary, err := json.Marshal(summarize(&entry))
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		be := badger.NewEntry(batchKey(id), data)
		ie := badger.NewEntry(indexKey(batch.Category, batch.AsOf, id), summary)
		if s.cfg.TTL > 0 {
			be = be.WithTTL(s.cfg.TTL)
			ie = ie.WithTTL(s.cfg.TTL)
		}
		if err := txn.SetEntry(be); err != nil {
			return err
		}
		return txn.SetEntry(ie)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.logger.Debug().Str("id", id).Str("category", batch.Category).Int("bytes", len(data)).Msg("Snapshot saved")
	return nil
}

// Get loads the batch stored under id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	entry, err := s.get(ctx, id)
	metrics.RecordSnapshot("get", err)
	return entry, err
}

func (s *Store) get(ctx context.Context, id string) (*Entry, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(batchKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return &entry, nil
}

// List returns up to limit summaries for category, newest first. A limit
// of zero or less returns all of them.
func (s *Store) List(ctx context.Context, category string, limit int) ([]Summary, error) {
	out, err := s.list(ctx, category, limit)
	metrics.RecordSnapshot("list", err)
	return out, err
}

func (s *Store) list(ctx context.Context, category string, limit int) ([]Summary, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := []Summary{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixIndex + category + ":")
		// Reverse iteration starts at the last key under prefix.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var sum Summary
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sum)
			}); err != nil {
				s.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable snapshot summary")
				continue
			}
			out = append(out, sum)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// Delete removes the batch stored under id. Missing IDs are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.delete(ctx, id)
	metrics.RecordSnapshot("delete", err)
	return err
}

func (s *Store) delete(ctx context.Context, id string) error {
	entry, err := s.get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(batchKey(id)); err != nil {
			return err
		}
		return txn.Delete(indexKey(entry.Batch.Category, entry.Batch.AsOf, id))
	})
}

// RunGC reclaims value log space until nothing more can be rewritten.
func (s *Store) RunGC() error {
	if err := s.check(context.Background()); err != nil {
		return err
	}
	if s.cfg.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(s.cfg.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database, giving up after CloseTimeout.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		s.logger.Info().Msg("Snapshot store closed")
		return nil
	case <-time.After(s.cfg.CloseTimeout):
		s.logger.Warn().Dur("timeout", s.cfg.CloseTimeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", s.cfg.CloseTimeout)
	}
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func summarize(e *Entry) Summary {
	return Summary{
		ID:           e.ID,
		Category:     e.Batch.Category,
		Keyword:      e.Batch.Keyword,
		AsOf:         e.Batch.AsOf,
		SavedAt:      e.SavedAt,
		Observations: len(e.Batch.Observations),
		Mentions:     len(e.Batch.Mentions),
	}
}

func batchKey(id string) []byte {
	return []byte(prefixBatch + id)
}

func indexKey(category string, asOf time.Time, id string) []byte {
	var b strings.Builder
	b.WriteString(prefixIndex)
	b.WriteString(category)
	var nanos int64
	if !asOf.IsZero() && asOf.Unix() > 0 {
		nanos = asOf.UnixNano()
	}
	fmt.Fprintf(&b, ":%020d:", nanos)
	b.WriteString(id)
	return []byte(b.String())
}
