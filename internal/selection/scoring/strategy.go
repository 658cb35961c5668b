// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package scoring converts candidates into normalized dimension scores.
//
// Two strategies exist and are never blended: commercial_value works from
// keyword-ad metrics alone, signal_richness from presence, search interest,
// sentiment, price position and resale retention. Choose picks one for a
// pool based on which signals are present.
package scoring

import (
	"fmt"

	"github.com/tomtom215/shortlist/internal/selection"
)

// Strategy scores a whole pool at once, since normalization is pool-relative.
type Strategy interface {
	// Name returns the strategy identifier recorded on each score.
	Name() string

	// Score returns one entry per candidate, in input order.
	Score(pool []*selection.Candidate) []selection.Scored
}

// Dimension is one weighted scoring axis.
type Dimension struct {
	Name   string
	Weight float64
}

// Choose returns the strategy pinned by the policy, or signal_richness when
// any candidate carries sentiment, resale or price-tier data, else
// commercial_value.
//
//nolint:gocritic // Policy is passed by value to keep it immutable across stages
func Choose(pool []*selection.Candidate, policy selection.Policy) (Strategy, error) {
	switch policy.Strategy {
	case selection.StrategyCommercialValue:
		return NewCommercialValue(), nil
	case selection.StrategySignalRichness:
		return NewSignalRichness(), nil
	case "":
	default:
		return nil, fmt.Errorf("unknown scoring strategy %q", policy.Strategy)
	}

	for _, c := range pool {
		if c.HasRichSignals() {
			return NewSignalRichness(), nil
		}
	}
	return NewCommercialValue(), nil
}

// weighted builds DimensionScores from values keyed by dimension name.
func weighted(strategy string, dims []Dimension, values map[string]float64) selection.DimensionScores {
	var total float64
	for _, d := range dims {
		total += d.Weight * values[d.Name]
	}
	return selection.DimensionScores{Strategy: strategy, Dimensions: values, Total: total}
}

// ratioToFloor returns v / max(poolMax, 1).
func ratioToFloor(v, poolMax float64) float64 {
	if poolMax < 1 {
		poolMax = 1
	}
	return clamp(v / poolMax)
}

// ratioToMax returns v / poolMax, or 0 when the pool maximum is not positive.
func ratioToMax(v, poolMax float64) float64 {
	if poolMax <= 0 {
		return 0
	}
	return clamp(v / poolMax)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
