// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package pipeline runs the full selection for one category batch:
// aggregate, attach signals, classify price tiers, score, select, validate
// with repair, count organic mentions and merge.
//
// A run is pure computation over its batch. The run ID and date are stamped
// on the output only, so identical batches yield identical final lists.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/metrics"
	"github.com/tomtom215/shortlist/internal/selection"
	"github.com/tomtom215/shortlist/internal/selection/aggregate"
	"github.com/tomtom215/shortlist/internal/selection/checks"
	"github.com/tomtom215/shortlist/internal/selection/identity"
	"github.com/tomtom215/shortlist/internal/selection/merge"
	"github.com/tomtom215/shortlist/internal/selection/organic"
	"github.com/tomtom215/shortlist/internal/selection/pricetier"
	"github.com/tomtom215/shortlist/internal/selection/scoring"
	"github.com/tomtom215/shortlist/internal/selection/slots"
)

// Batch is the complete, already-fetched input of one run.
type Batch struct {
	Category string    `json:"category"`
	Keyword  string    `json:"keyword"`
	AsOf     time.Time `json:"as_of"`

	Observations []selection.Observation      `json:"observations"`
	Signals      map[string]selection.Signals `json:"signals,omitempty"`
	Mentions     []selection.Mention          `json:"mentions,omitempty"`

	// Policy overrides the engine's policy for Category when set.
	Policy *selection.Policy `json:"policy,omitempty"`

	// Warnings raised while collecting the batch; carried onto the run.
	Warnings []string `json:"warnings,omitempty"`
}

// Run is the record of one completed run.
type Run struct {
	ID             string                         `json:"id"`
	Category       string                         `json:"category"`
	Keyword        string                         `json:"keyword"`
	AsOf           time.Time                      `json:"as_of"`
	Stats          aggregate.Stats                `json:"stats"`
	Selection      selection.SelectionResult      `json:"selection"`
	Recommendation selection.RecommendationResult `json:"recommendation"`
	Final          selection.FinalSelectionResult `json:"final"`
	Warnings       []string                       `json:"warnings,omitempty"`

	// SnapshotID links the run to its stored input batch, when there is one.
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// Engine runs batches. It is safe for concurrent use; runs share no state
// beyond the policy table.
type Engine struct {
	policies map[string]selection.Policy
	mu       sync.RWMutex
	newID    func() string
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicies registers per-category policies. Categories without an
// entry use selection.DefaultPolicy.
func WithPolicies(policies map[string]selection.Policy) Option {
	return func(e *Engine) {
		for k, p := range policies {
			e.policies[k] = p.Clone()
		}
	}
}

// WithIDGenerator replaces the run ID source.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an Engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		policies: make(map[string]selection.Policy),
		newID:    uuid.NewString,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPolicy replaces the policy of one category.
//
//nolint:gocritic // Policy is passed by value to keep it immutable across stages
func (e *Engine) SetPolicy(p selection.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.policies[p.Category] = p.Clone()
	e.mu.Unlock()
	return nil
}

// Policy returns the policy used for category.
func (e *Engine) Policy(category string) selection.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if p, ok := e.policies[category]; ok {
		return p.Clone()
	}
	return selection.DefaultPolicy(category)
}

// Categories returns the categories with a registered policy, sorted.
func (e *Engine) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.policies))
	for k := range e.policies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Run executes every stage on the batch. Only InsufficientCandidates,
// an invalid policy and cancellation are errors; failed checks and missing
// organic data are reported as warnings on the returned run.
//
//nolint:gocritic // Batch is passed by value so callers can reuse it
func (e *Engine) Run(ctx context.Context, batch Batch) (*Run, error) {
	start := time.Now()
	run, err := e.run(ctx, batch)

	outcome := metrics.OutcomeOK
	pool := 0
	switch {
	case errors.Is(err, selection.ErrInsufficientCandidates):
		outcome = metrics.OutcomeInsufficient
	case err != nil:
		outcome = metrics.OutcomeError
	case !run.Selection.Passed():
		outcome = metrics.OutcomeValidationFailed
	}
	if run != nil {
		pool = run.Selection.CandidatePoolSize
		metrics.RecordMerge(run.Category, string(run.Final.MergeCase), run.Selection.FailedChecks(), len(run.Selection.Fixes))
	}
	metrics.RecordRun(batch.Category, outcome, time.Since(start), pool)
	return run, err
}

//nolint:gocritic // Batch is passed by value so callers can reuse it
func (e *Engine) run(ctx context.Context, batch Batch) (*Run, error) {
	policy := e.Policy(batch.Category)
	if batch.Policy != nil {
		policy = batch.Policy.Clone()
	}
	if policy.Category == "" {
		policy.Category = batch.Category
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy for %q: %w", batch.Category, err)
	}

	run := &Run{
		ID:       e.newID(),
		Category: policy.Category,
		Keyword:  batch.Keyword,
		AsOf:     batch.AsOf,
		Warnings: append([]string(nil), batch.Warnings...),
	}
	logger := e.logger.With().Str("run_id", run.ID).Str("category", run.Category).Logger()

	pool, stats := aggregate.New(policy, logger).Aggregate(batch.Observations)
	run.Stats = stats
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attachSignals(pool, batch.Signals, identity.NewMatcher(identity.WithSuffixes(policy.CategorySuffixes)))

	strategy, err := scoring.Choose(pool, policy)
	if err != nil {
		return nil, err
	}
	if strategy.Name() == selection.StrategySignalRichness {
		tiers := pricetier.New(logger).Apply(pool)
		if tiers.PremiumTooWide {
			run.Warnings = append(run.Warnings, "premium price tier spans more than the allowed ratio")
		}
	}

	scored := strategy.Score(pool)
	picks, err := slots.New(policy, logger).Select(scored)
	if err != nil {
		logger.Warn().Err(err).Msg("Selection aborted")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	picks, findings, fixes := checks.New(policy, batch.AsOf, logger).ValidateAndFix(picks, scored)
	run.Selection = selection.SelectionResult{
		Category:          policy.Category,
		SelectionDate:     batch.AsOf,
		DataSources:       stats.Platforms,
		CandidatePoolSize: len(pool),
		Strategy:          strategy.Name(),
		Selected:          picks,
		Validation:        findings,
		Fixes:             fixes,
	}
	if verr := run.Selection.ValidationError(); verr != nil {
		run.Warnings = append(run.Warnings, verr.Error())
	}

	run.Recommendation = organic.New(policy.OrganicTopN, logger).Count(batch.Keyword, batch.Mentions)
	if len(run.Recommendation.Top) == 0 {
		run.Warnings = append(run.Warnings, selection.ErrNoOrganicData.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.Final = merge.New(logger, identity.WithSuffixes(policy.CategorySuffixes)).Merge(&run.Selection, &run.Recommendation)

	logger.Info().
		Str("strategy", run.Selection.Strategy).
		Int("pool", run.Selection.CandidatePoolSize).
		Bool("passed", run.Selection.Passed()).
		Str("merge_case", string(run.Final.MergeCase)).
		Int("warnings", len(run.Warnings)).
		Msg("Selection run completed")
	return run, nil
}

// attachSignals copies each signal set onto the candidate it names. An
// exact name wins; otherwise the first key, in sorted order, that the
// identity matcher accepts is used.
func attachSignals(pool []*selection.Candidate, signals map[string]selection.Signals, m *identity.Matcher) {
	if len(signals) == 0 {
		return
	}
	keys := make([]string, 0, len(signals))
	for k := range signals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, c := range pool {
		if s, ok := signals[c.Name]; ok {
			c.Attach(s)
			continue
		}
		for _, k := range keys {
			if ok, _ := m.Match(c.Name, k); ok {
				c.Attach(signals[k])
				break
			}
		}
	}
}
