// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package pricetier

import (
	"fmt"
	"math"
	"testing"

	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/selection"
)

func pool(prices ...int64) []*selection.Candidate {
	cands := make([]*selection.Candidate, len(prices))
	for i, p := range prices {
		cands[i] = &selection.Candidate{
			Name:         fmt.Sprintf("P%d", i+1),
			Price:        p,
			Observations: []selection.Observation{{Platform: "danawa", Price: p}, {Platform: "coupang", Price: p + 1000}},
		}
	}
	return cands
}

func tiers(res Result) []selection.PriceTier {
	out := make([]selection.PriceTier, len(res.Positions))
	for i, p := range res.Positions {
		out[i] = p.Tier
	}
	return out
}

func equalTiers(a, b []selection.PriceTier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const (
	b = selection.TierBudget
	m = selection.TierMid
	p = selection.TierPremium
)

func TestClassify_Percentiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prices []int64
		want   []selection.PriceTier
	}{
		{"single", []int64{300}, []selection.PriceTier{m}},
		{"pair", []int64{300, 100}, []selection.PriceTier{p, b}},
		{"five", []int64{100, 200, 300, 400, 500}, []selection.PriceTier{b, b, m, p, p}},
		{"four without mid", []int64{100, 110, 120, 130}, []selection.PriceTier{b, b, p, p}},
	}

	c := New(logging.NewNopLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tiers(c.Classify(pool(tt.prices...)))
			if !equalTiers(got, tt.want) {
				t.Errorf("tiers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Normalization(t *testing.T) {
	t.Parallel()

	c := New(logging.NewNopLogger())

	res := c.Classify(pool(100, 200, 300, 400, 500))
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i, pos := range res.Positions {
		if math.Abs(pos.Normalized-want[i]) > 1e-9 {
			t.Errorf("position %d normalized = %v, want %v", i, pos.Normalized, want[i])
		}
	}

	flat := c.Classify(pool(700, 700, 700))
	for _, pos := range flat.Positions {
		if pos.Normalized != 0.5 {
			t.Errorf("equal prices normalized = %v, want 0.5", pos.Normalized)
		}
	}
}

func TestClassify_WidthRuleCascade(t *testing.T) {
	t.Parallel()

	c := New(logging.NewNopLogger())
	res := c.Classify(pool(100, 110, 500, 600, 700, 2000, 2100, 3000, 3100, 3200))

	want := []selection.PriceTier{b, b, m, m, m, p, p, p, p, p}
	if got := tiers(res); !equalTiers(got, want) {
		t.Errorf("tiers = %v, want %v", got, want)
	}
	if res.Promotions != 3 {
		t.Errorf("Promotions = %d, want 3", res.Promotions)
	}
	if res.PremiumTooWide {
		t.Error("premium tier should be within the ratio")
	}
}

func TestClassify_PremiumTooWide(t *testing.T) {
	t.Parallel()

	res := New(logging.NewNopLogger()).Classify(pool(100, 110, 200, 900))
	if !res.PremiumTooWide {
		t.Error("expected PremiumTooWide")
	}
}

func TestClassify_SkipsUnpriced(t *testing.T) {
	t.Parallel()

	cands := pool(100, 200)
	cands = append(cands, &selection.Candidate{Name: "no price"})

	res := New(logging.NewNopLogger()).Classify(cands)
	if len(res.Positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(res.Positions))
	}
	for _, pos := range res.Positions {
		if pos.Name == "no price" {
			t.Error("unpriced candidate must be omitted")
		}
	}
}

func TestApply_KeepsUpstreamTier(t *testing.T) {
	t.Parallel()

	cands := pool(100, 200, 300, 400, 500)
	cands[0].PricePosition = &selection.PricePosition{Tier: selection.TierPremium}

	New(logging.NewNopLogger()).Apply(cands)

	if cands[0].PricePosition.Tier != selection.TierPremium {
		t.Errorf("upstream tier overwritten: %v", cands[0].PricePosition.Tier)
	}
	if cands[0].PricePosition.CurrentPrice != 100 {
		t.Errorf("CurrentPrice = %d, want lowest observed price 100", cands[0].PricePosition.CurrentPrice)
	}
	if cands[4].PricePosition == nil || cands[4].PricePosition.Tier != selection.TierPremium {
		t.Errorf("computed tier missing: %+v", cands[4].PricePosition)
	}
}
