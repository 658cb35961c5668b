// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector reclaims space in a value log.
type GarbageCollector interface {
	RunGC() error
}

// SnapshotGCService runs snapshot garbage collection on an interval.
type SnapshotGCService struct {
	store    GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
}

// NewSnapshotGCService creates the service. interval defaults to 10 minutes.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSnapshotGCService(store GarbageCollector, interval time.Duration, logger zerolog.Logger) *SnapshotGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SnapshotGCService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "snapshot-gc").Logger(),
	}
}

// Serve implements suture.Service. GC errors are logged, never returned.
func (g *SnapshotGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := g.store.RunGC(); err != nil {
				g.logger.Warn().Err(err).Msg("Snapshot GC failed")
				continue
			}
			g.logger.Debug().Dur("took", time.Since(start)).Msg("Snapshot GC finished")
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (g *SnapshotGCService) String() string {
	return "snapshot-gc"
}
