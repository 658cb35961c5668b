// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package runner ties a run's side effects together: the input batch is
// snapshotted, the engine runs, the result is stored and announced. The
// API, the scheduler and the CLI all go through a Runner.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/collect"
	"github.com/tomtom215/shortlist/internal/events"
	"github.com/tomtom215/shortlist/internal/pipeline"
	"github.com/tomtom215/shortlist/internal/snapshot"
)

// ErrNoCollector is returned by RunCategory when no collector is set.
var ErrNoCollector = errors.New("no collector configured")

// ErrNoSnapshots is returned by Replay when no snapshot store is set.
var ErrNoSnapshots = errors.New("no snapshot store configured")

// Engine runs a batch.
type Engine interface {
	Run(ctx context.Context, batch pipeline.Batch) (*pipeline.Run, error)
}

// Collector fetches a batch.
type Collector interface {
	Collect(ctx context.Context, q collect.Query) (pipeline.Batch, error)
}

// SnapshotStore keeps input batches.
type SnapshotStore interface {
	Save(ctx context.Context, id string, batch pipeline.Batch) error
	Get(ctx context.Context, id string) (*snapshot.Entry, error)
}

// RunStore keeps finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *pipeline.Run) error
}

// Runner executes runs with their side effects. Every dependency except
// the engine is optional.
type Runner struct {
	engine    Engine
	collector Collector
	snapshots SnapshotStore
	runs      RunStore
	publisher events.Publisher
	newID     func() string
	logger    zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCollector enables RunCategory.
func WithCollector(c Collector) Option { return func(r *Runner) { r.collector = c } }

// WithSnapshots stores every executed batch and enables Replay.
func WithSnapshots(s SnapshotStore) Option { return func(r *Runner) { r.snapshots = s } }

// WithRunStore stores every finished run.
func WithRunStore(s RunStore) Option { return func(r *Runner) { r.runs = s } }

// WithPublisher announces finished and failed runs.
func WithPublisher(p events.Publisher) Option { return func(r *Runner) { r.publisher = p } }

// WithIDGenerator replaces the snapshot ID generator.
func WithIDGenerator(fn func() string) Option { return func(r *Runner) { r.newID = fn } }

// New creates a Runner.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(engine Engine, logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		newID:  uuid.NewString,
		logger: logger.With().Str("component", "runner").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute snapshots batch, runs it, stores the run and publishes it.
// Storage and snapshot failures fail the run; publish failures are only
// logged.
//
//nolint:gocritic // Batch is passed by value so callers can reuse it
func (r *Runner) Execute(ctx context.Context, batch pipeline.Batch) (*pipeline.Run, error) {
	snapshotID := ""
	if r.snapshots != nil {
		snapshotID = r.newID()
		if err := r.snapshots.Save(ctx, snapshotID, batch); err != nil {
			r.fail(ctx, batch.Category, err)
			return nil, fmt.Errorf("snapshot batch: %w", err)
		}
	}
	return r.execute(ctx, batch, snapshotID)
}

// RunCategory collects a fresh batch for category and executes it.
func (r *Runner) RunCategory(ctx context.Context, category, keyword string) (*pipeline.Run, error) {
	if r.collector == nil {
		return nil, ErrNoCollector
	}
	batch, err := r.collector.Collect(ctx, collect.Query{Category: category, Keyword: keyword})
	if err != nil {
		r.fail(ctx, category, err)
		return nil, fmt.Errorf("collect %s: %w", category, err)
	}
	return r.Execute(ctx, batch)
}

// Replay re-runs a stored batch under the current policies. The new run
// points at the same snapshot.
func (r *Runner) Replay(ctx context.Context, snapshotID string) (*pipeline.Run, error) {
	if r.snapshots == nil {
		return nil, ErrNoSnapshots
	}
	entry, err := r.snapshots.Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Str("snapshot_id", snapshotID).Str("category", entry.Batch.Category).Msg("Replaying snapshot")
	return r.execute(ctx, entry.Batch, snapshotID)
}

//nolint:gocritic // Batch is passed by value so callers can reuse it
func (r *Runner) execute(ctx context.Context, batch pipeline.Batch, snapshotID string) (*pipeline.Run, error) {
	run, err := r.engine.Run(ctx, batch)
	if err != nil {
		r.fail(ctx, batch.Category, err)
		return nil, err
	}
	run.SnapshotID = snapshotID

	if r.runs != nil {
		if err := r.runs.SaveRun(ctx, run); err != nil {
			r.fail(ctx, batch.Category, err)
			return nil, fmt.Errorf("store run: %w", err)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishRun(ctx, run); err != nil {
			r.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to publish run")
		}
	}

	r.logger.Info().
		Str("run_id", run.ID).
		Str("category", run.Category).
		Str("merge_case", string(run.Final.MergeCase)).
		Str("snapshot_id", snapshotID).
		Msg("Run completed")
	return run, nil
}

func (r *Runner) fail(ctx context.Context, category string, cause error) {
	r.logger.Warn().Err(cause).Str("category", category).Msg("Run failed")
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishFailure(ctx, category, cause); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to publish run failure")
	}
}
