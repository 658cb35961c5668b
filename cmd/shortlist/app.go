// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/collect"
	"github.com/tomtom215/shortlist/internal/config"
	"github.com/tomtom215/shortlist/internal/events"
	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/pipeline"
	"github.com/tomtom215/shortlist/internal/runner"
	"github.com/tomtom215/shortlist/internal/snapshot"
	"github.com/tomtom215/shortlist/internal/store"
)

// app holds the wired components. snapshots and runs are nil when the
// command runs without persistence or the store is disabled.
type app struct {
	cfg       *config.Config
	engine    *pipeline.Engine
	collector *collect.Collector
	snapshots *snapshot.Store
	runs      *store.Store
	bus       *events.Bus
	runner    *runner.Runner
	logger    zerolog.Logger
}

// appOptions selects which optional components newApp opens.
type appOptions struct {
	persist bool
	collect bool
	events  bool
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts appOptions) (*app, error) {
	a := &app{
		cfg:    cfg,
		engine: pipeline.NewEngine(logger, pipeline.WithPolicies(cfg.Policies())),
		logger: logger,
	}
	runnerOpts := []runner.Option{}

	if opts.persist {
		if cfg.Storage.SnapshotDir != "" {
			snaps, err := snapshot.Open(snapshot.Config{
				Path:         cfg.Storage.SnapshotDir,
				Compression:  true,
				CloseTimeout: 10 * time.Second,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("open snapshots: %w", err)
			}
			a.snapshots = snaps
			runnerOpts = append(runnerOpts, runner.WithSnapshots(snaps))
		}
		runs, err := store.Open(ctx, cfg.Storage.DuckDBPath, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.runs = runs
		runnerOpts = append(runnerOpts, runner.WithRunStore(runs))
	}

	if opts.collect {
		a.collector = newCollector(cfg, logger)
		runnerOpts = append(runnerOpts, runner.WithCollector(a.collector))
	}

	if opts.events {
		a.bus = events.NewBus(64, logger)
		runnerOpts = append(runnerOpts, runner.WithPublisher(a.bus))
	}

	a.runner = runner.New(a.engine, logger, runnerOpts...)
	return a, nil
}

// newCollector registers one file source per configured platform plus the
// mention and signal files.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newCollector(cfg *config.Config, logger zerolog.Logger) *collect.Collector {
	c := collect.NewCollector(collect.Config{
		Timeout: cfg.Sources.Timeout,
		Breaker: collect.BreakerConfig{
			MaxFailures: cfg.Sources.BreakerMaxFailures,
			Timeout:     cfg.Sources.BreakerTimeout,
		},
	}, logger)
	for _, platform := range cfg.Sources.Platforms {
		if err := c.AddObservationSource(collect.NewPlatformFile(cfg.Sources.Dir, platform)); err != nil {
			logger.Warn().Err(err).Str("platform", platform).Msg("Skipping platform source")
		}
	}
	if err := c.AddMentionSource(collect.NewMentionFile(cfg.Sources.Dir)); err != nil {
		logger.Warn().Err(err).Msg("Skipping mention source")
	}
	if err := c.AddSignalSource(collect.NewSignalFile(cfg.Sources.Dir)); err != nil {
		logger.Warn().Err(err).Msg("Skipping signal source")
	}
	return c
}

// reload applies a freshly loaded config: the log level, then the category
// policies. Storage, server and schedule settings need a restart.
func (a *app) reload(cfg *config.Config) {
	prev := logging.GetLevel()
	logging.SetLevelString(cfg.Logging.Level)
	if next := logging.GetLevel(); next != prev {
		a.logger.Info().Str("from", prev.String()).Str("to", next.String()).Msg("Log level changed")
	}
	a.reloadPolicies(cfg)
	logging.Debug().Int("categories", len(cfg.Categories)).Msg("Config reloaded")
}

// reloadPolicies applies the category policies of a freshly loaded config.
// An invalid policy leaves the previous one in place.
func (a *app) reloadPolicies(cfg *config.Config) {
	for category, policy := range cfg.Policies() {
		if err := a.engine.SetPolicy(policy); err != nil {
			a.logger.Warn().Err(err).Str("category", category).Msg("Policy reload rejected")
			continue
		}
		a.logger.Info().Str("category", category).Msg("Policy reloaded")
	}
}

func (a *app) close() error {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.runs != nil {
		errs = append(errs, a.runs.Close())
	}
	if a.snapshots != nil {
		errs = append(errs, a.snapshots.Close())
	}
	return errors.Join(errs...)
}
