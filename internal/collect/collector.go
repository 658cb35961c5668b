// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/shortlist/internal/metrics"
	"github.com/tomtom215/shortlist/internal/pipeline"
	"github.com/tomtom215/shortlist/internal/selection"
)

var (
	// ErrNoSources is returned when no observation source is registered.
	ErrNoSources = errors.New("no observation sources registered")

	// ErrNoObservations is returned when every observation source failed.
	ErrNoObservations = errors.New("all observation sources failed")

	// ErrDuplicateSource is returned when a source name is registered twice.
	ErrDuplicateSource = errors.New("duplicate source name")
)

// Config controls fetching.
type Config struct {
	// Timeout bounds each source fetch. Zero means no per-source bound.
	Timeout time.Duration
	// Concurrency limits simultaneous fetches. Zero means unlimited.
	Concurrency int
	Breaker     BreakerConfig
}

// Collector fetches a batch from its registered sources.
type Collector struct {
	observations []ObservationSource
	mentions     []MentionSource
	signals      []SignalSource
	breakers     map[string]*breaker

	cfg    Config
	now    func() time.Time
	logger zerolog.Logger
}

// NewCollector creates a collector with no sources.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCollector(cfg Config, logger zerolog.Logger) *Collector {
	return &Collector{
		breakers: make(map[string]*breaker),
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With().Str("component", "collect").Logger(),
	}
}

// AddObservationSource registers a ranking source.
func (c *Collector) AddObservationSource(s ObservationSource) error {
	if err := c.register(s); err != nil {
		return err
	}
	c.observations = append(c.observations, s)
	return nil
}

// AddMentionSource registers a mention source.
func (c *Collector) AddMentionSource(s MentionSource) error {
	if err := c.register(s); err != nil {
		return err
	}
	c.mentions = append(c.mentions, s)
	return nil
}

// AddSignalSource registers a signal source.
func (c *Collector) AddSignalSource(s SignalSource) error {
	if err := c.register(s); err != nil {
		return err
	}
	c.signals = append(c.signals, s)
	return nil
}

func (c *Collector) register(s Source) error {
	name := s.Name()
	if _, ok := c.breakers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, name)
	}
	c.breakers[name] = newBreaker(name, c.cfg.Breaker, c.logger)
	return nil
}

// Collect fetches from every source concurrently and assembles the batch
// in registration order. Failed sources are reported in Batch.Warnings; an
// error is returned only when no observations could be fetched at all or
// ctx ends.
func (c *Collector) Collect(ctx context.Context, q Query) (pipeline.Batch, error) {
	if len(c.observations) == 0 {
		return pipeline.Batch{}, ErrNoSources
	}

	obs := make([][]selection.Observation, len(c.observations))
	obsErrs := make([]error, len(c.observations))
	mentions := make([][]selection.Mention, len(c.mentions))
	mentionErrs := make([]error, len(c.mentions))
	signals := make([]map[string]selection.Signals, len(c.signals))
	signalErrs := make([]error, len(c.signals))

	var g errgroup.Group
	if c.cfg.Concurrency > 0 {
		g.SetLimit(c.cfg.Concurrency)
	}
	for i, s := range c.observations {
		g.Go(func() error {
			obs[i], obsErrs[i] = fetch(ctx, c, s, func(ctx context.Context) ([]selection.Observation, error) {
				return s.FetchObservations(ctx, q)
			}, func(v []selection.Observation) int { return len(v) })
			return nil
		})
	}
	for i, s := range c.mentions {
		g.Go(func() error {
			mentions[i], mentionErrs[i] = fetch(ctx, c, s, func(ctx context.Context) ([]selection.Mention, error) {
				return s.FetchMentions(ctx, q)
			}, func(v []selection.Mention) int { return len(v) })
			return nil
		})
	}
	for i, s := range c.signals {
		g.Go(func() error {
			signals[i], signalErrs[i] = fetch(ctx, c, s, func(ctx context.Context) (map[string]selection.Signals, error) {
				return s.FetchSignals(ctx, q)
			}, func(v map[string]selection.Signals) int { return len(v) })
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // fetches report through the result slices
	if err := ctx.Err(); err != nil {
		return pipeline.Batch{}, err
	}

	batch := pipeline.Batch{
		Category: q.Category,
		Keyword:  q.Keyword,
		AsOf:     c.now().UTC(),
	}

	var failed []error
	for i, s := range c.observations {
		if obsErrs[i] != nil {
			failed = append(failed, fmt.Errorf("%s: %w", s.Name(), obsErrs[i]))
			batch.Warnings = append(batch.Warnings, c.warn(s, obsErrs[i]))
			continue
		}
		batch.Observations = append(batch.Observations, obs[i]...)
	}
	if len(failed) == len(c.observations) {
		return pipeline.Batch{}, fmt.Errorf("%w: %w", ErrNoObservations, errors.Join(failed...))
	}

	for i, s := range c.mentions {
		if mentionErrs[i] != nil {
			batch.Warnings = append(batch.Warnings, c.warn(s, mentionErrs[i]))
			continue
		}
		batch.Mentions = append(batch.Mentions, mentions[i]...)
	}

	for i, s := range c.signals {
		if signalErrs[i] != nil {
			batch.Warnings = append(batch.Warnings, c.warn(s, signalErrs[i]))
			continue
		}
		if batch.Signals == nil {
			batch.Signals = make(map[string]selection.Signals)
		}
		for name, sig := range signals[i] {
			batch.Signals[name] = mergeSignals(batch.Signals[name], sig)
		}
	}

	c.logger.Info().
		Str("category", q.Category).
		Int("observations", len(batch.Observations)).
		Int("mentions", len(batch.Mentions)).
		Int("signals", len(batch.Signals)).
		Int("warnings", len(batch.Warnings)).
		Msg("Batch collected")
	return batch, nil
}

// SourceStates reports the breaker state of every registered source.
func (c *Collector) SourceStates() map[string]string {
	out := make(map[string]string, len(c.breakers))
	for name, b := range c.breakers {
		out[name] = stateToString(b.state())
	}
	return out
}

func (c *Collector) warn(s Source, err error) string {
	c.logger.Warn().Err(err).Str("source", s.Name()).Msg("Source fetch failed")
	if isRejected(err) {
		return fmt.Sprintf("source %s skipped: circuit open", s.Name())
	}
	return fmt.Sprintf("source %s failed: %v", s.Name(), err)
}

func fetch[T any](ctx context.Context, c *Collector, s Source, fn func(context.Context) (T, error), count func(T) int) (T, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	v, err := castResult[T](c.breakers[s.Name()].execute(func() (interface{}, error) {
		return fn(ctx)
	}))
	metrics.RecordCollect(s.Name(), time.Since(start), count(v), err)
	return v, err
}

// mergeSignals overlays the set fields of src onto dst.
//
//nolint:gocritic // Signals is small and copied intentionally
func mergeSignals(dst, src selection.Signals) selection.Signals {
	if src.Keyword != nil {
		dst.Keyword = src.Keyword
	}
	if src.Sentiment != nil {
		dst.Sentiment = src.Sentiment
	}
	if src.PriceTier != "" {
		dst.PriceTier = src.PriceTier
	}
	if src.ResaleRatio != nil {
		dst.ResaleRatio = src.ResaleRatio
	}
	if src.SearchInterest != nil {
		dst.SearchInterest = src.SearchInterest
	}
	if src.ReleaseDate != "" {
		dst.ReleaseDate = src.ReleaseDate
	}
	if src.InStock != nil {
		dst.InStock = src.InStock
	}
	return dst
}
