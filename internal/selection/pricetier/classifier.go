// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package pricetier places candidates into budget, mid and premium bands by
// their position in the pool's price distribution.
package pricetier

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/selection"
)

const (
	// MaxTierPriceRatio is the widest max/min price ratio allowed inside one tier.
	MaxTierPriceRatio = 3.0

	// tierShare is the fraction of the pool placed in each of budget and premium.
	tierShare = 0.3

	// maxPasses bounds the promotion cascade.
	maxPasses = 4
)

var tierOrder = []selection.PriceTier{selection.TierBudget, selection.TierMid, selection.TierPremium}

// Position is the computed price position of one candidate.
type Position struct {
	Name string
	selection.PricePosition
}

// Result is the outcome of a classification.
type Result struct {
	Positions []Position
	// Promotions counts candidates moved up a tier by the width rule.
	Promotions int
	// PremiumTooWide is set when the premium tier still exceeds the ratio.
	PremiumTooWide bool
}

// Classifier assigns price tiers.
type Classifier struct {
	maxRatio float64
	logger   zerolog.Logger
}

// New creates a Classifier using MaxTierPriceRatio.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(logger zerolog.Logger) *Classifier {
	return &Classifier{
		maxRatio: MaxTierPriceRatio,
		logger:   logger.With().Str("component", "pricetier").Logger(),
	}
}

type priced struct {
	name  string
	price int64
	tier  selection.PriceTier
}

// Classify computes positions for every candidate with a positive price.
// Candidates without a price are omitted.
func (c *Classifier) Classify(cands []*selection.Candidate) Result {
	items := make([]*priced, 0, len(cands))
	for _, cand := range cands {
		if p := lowestPrice(cand); p > 0 {
			items = append(items, &priced{name: cand.Name, price: p})
		}
	}
	if len(items) == 0 {
		return Result{}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].price < items[j].price })
	assignPercentiles(items)
	promotions, premiumWide := c.enforceWidth(items)

	minP, maxP := items[0].price, items[len(items)-1].price
	byName := make(map[string]*priced, len(items))
	for _, it := range items {
		byName[it.name] = it
	}

	res := Result{Promotions: promotions, PremiumTooWide: premiumWide}
	for _, cand := range cands {
		it, ok := byName[cand.Name]
		if !ok {
			continue
		}
		norm := 0.5
		if maxP > minP {
			norm = float64(it.price-minP) / float64(maxP-minP)
		}
		res.Positions = append(res.Positions, Position{
			Name:          it.name,
			PricePosition: selection.PricePosition{CurrentPrice: it.price, Tier: it.tier, Normalized: norm},
		})
	}

	c.logger.Debug().
		Int("classified", len(res.Positions)).
		Int("promotions", promotions).
		Bool("premium_too_wide", premiumWide).
		Msg("Price tiers assigned")
	return res
}

// Apply classifies the pool and attaches positions. An upstream tier wins
// over the computed one; price and normalization are always refreshed.
func (c *Classifier) Apply(cands []*selection.Candidate) Result {
	res := c.Classify(cands)
	byName := make(map[string]selection.PricePosition, len(res.Positions))
	for _, p := range res.Positions {
		byName[p.Name] = p.PricePosition
	}
	for _, cand := range cands {
		pos, ok := byName[cand.Name]
		if !ok {
			continue
		}
		if cand.PricePosition != nil && cand.PricePosition.Tier.Valid() {
			pos.Tier = cand.PricePosition.Tier
		}
		cand.PricePosition = &pos
	}
	return res
}

func lowestPrice(c *selection.Candidate) int64 {
	var best int64
	for _, o := range c.Observations {
		if o.Price > 0 && (best == 0 || o.Price < best) {
			best = o.Price
		}
	}
	if best == 0 && c.Price > 0 {
		best = c.Price
	}
	return best
}

// assignPercentiles labels the bottom ceil(30%) budget and the top ceil(30%)
// premium. Pools of one are mid; pools of two are budget and premium.
func assignPercentiles(items []*priced) {
	n := len(items)
	switch n {
	case 1:
		items[0].tier = selection.TierMid
		return
	case 2:
		items[0].tier = selection.TierBudget
		items[1].tier = selection.TierPremium
		return
	}

	share := int(math.Ceil(float64(n) * tierShare))
	budget, premium := share, share
	if budget+premium > n {
		budget = n / 2
		premium = n - budget
	}
	for i, it := range items {
		switch {
		case i < budget:
			it.tier = selection.TierBudget
		case i < n-premium:
			it.tier = selection.TierMid
		default:
			it.tier = selection.TierPremium
		}
	}
}

// enforceWidth splits any budget or mid tier whose max/min ratio exceeds the
// limit at its largest adjacent price gap, promoting the upper part. Passes
// repeat until nothing moves or maxPasses is reached.
func (c *Classifier) enforceWidth(items []*priced) (promotions int, premiumWide bool) {
	for pass := 0; pass < maxPasses; pass++ {
		moved := false
		for ti, tier := range tierOrder[:len(tierOrder)-1] {
			members := inTier(items, tier)
			if !c.tooWide(members) {
				continue
			}
			cut := largestGap(members)
			next := tierOrder[ti+1]
			for _, it := range members[cut:] {
				it.tier = next
				promotions++
			}
			moved = true
			c.logger.Debug().
				Str("from", string(tier)).
				Str("to", string(next)).
				Int("promoted", len(members)-cut).
				Msg("Tier price ratio exceeded, promoting above largest gap")
		}
		if !moved {
			break
		}
	}
	if c.tooWide(inTier(items, selection.TierPremium)) {
		premiumWide = true
		c.logger.Warn().Msg("Premium tier exceeds price ratio limit and cannot be promoted")
	}
	return promotions, premiumWide
}

func (c *Classifier) tooWide(members []*priced) bool {
	if len(members) < 2 || members[0].price <= 0 {
		return false
	}
	return float64(members[len(members)-1].price)/float64(members[0].price) > c.maxRatio
}

// inTier returns members of tier in ascending price order.
func inTier(items []*priced, tier selection.PriceTier) []*priced {
	var out []*priced
	for _, it := range items {
		if it.tier == tier {
			out = append(out, it)
		}
	}
	return out
}

// largestGap returns the index of the first item above the widest gap.
func largestGap(members []*priced) int {
	var gap int64
	cut := 0
	for i := 0; i+1 < len(members); i++ {
		if d := members[i+1].price - members[i].price; d > gap {
			gap = d
			cut = i + 1
		}
	}
	return cut
}
