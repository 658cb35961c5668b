// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/metrics"
	"github.com/tomtom215/shortlist/internal/pipeline"
)

// CategoryRunner collects and runs one category.
type CategoryRunner interface {
	RunCategory(ctx context.Context, category, keyword string) (*pipeline.Run, error)
}

// SchedulerConfig configures periodic selection runs.
type SchedulerConfig struct {
	Interval   time.Duration
	RunOnStart bool
	// Keywords maps each scheduled category to its search keyword.
	Keywords map[string]string
}

// SchedulerService runs every configured category once per interval.
// A failing category is logged and does not stop the others.
type SchedulerService struct {
	runner     CategoryRunner
	config     SchedulerConfig
	categories []string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSchedulerService creates the scheduler. Categories run in sorted order.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSchedulerService(runner CategoryRunner, config SchedulerConfig, logger zerolog.Logger) *SchedulerService {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	categories := make([]string, 0, len(config.Keywords))
	for cat := range config.Keywords {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return &SchedulerService{
		runner:     runner,
		config:     config,
		categories: categories,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Strs("categories", s.categories).
		Msg("Scheduler started")

	if s.config.RunOnStart {
		s.runAll(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll runs every category and reports how many succeeded.
func (s *SchedulerService) runAll(ctx context.Context) int {
	succeeded := 0
	for _, cat := range s.categories {
		if ctx.Err() != nil {
			break
		}
		runCtx := logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
		run, err := s.runner.RunCategory(runCtx, cat, s.config.Keywords[cat])
		if err != nil {
			s.logger.Error().Err(err).Str("category", cat).Msg("Scheduled run failed")
			continue
		}
		succeeded++
		s.logger.Info().
			Str("category", cat).
			Str("run_id", run.ID).
			Str("merge_case", string(run.Final.MergeCase)).
			Msg("Scheduled run completed")
	}
	if succeeded > 0 {
		metrics.SchedulerLastSuccess.Set(float64(s.now().Unix()))
	}
	return succeeded
}

// String implements fmt.Stringer for suture's log messages.
func (s *SchedulerService) String() string {
	return "scheduler"
}
