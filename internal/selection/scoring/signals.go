// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package scoring

import (
	"github.com/tomtom215/shortlist/internal/selection"
)

// Signal richness dimensions.
const (
	DimSalesPresence   = "sales_presence"
	DimSearchInterest  = "search_interest"
	DimSentiment       = "sentiment"
	DimPricePosition   = "price_position"
	DimResaleRetention = "resale_retention"
)

// SignalDimensions are the weighted axes of the signal_richness strategy.
var SignalDimensions = []Dimension{
	{Name: DimSalesPresence, Weight: 0.20},
	{Name: DimSearchInterest, Weight: 0.25},
	{Name: DimSentiment, Weight: 0.25},
	{Name: DimPricePosition, Weight: 0.15},
	{Name: DimResaleRetention, Weight: 0.15},
}

// neutralSentiment is used when no community posts were observed.
const neutralSentiment = 0.5

// SignalRichness scores candidates from presence, search interest,
// sentiment, price tier and resale ratio. Missing presence-type signals
// score 0; missing sentiment scores 0.5.
type SignalRichness struct{}

// NewSignalRichness creates the signal_richness strategy.
func NewSignalRichness() *SignalRichness {
	return &SignalRichness{}
}

// Name implements Strategy.
func (s *SignalRichness) Name() string {
	return selection.StrategySignalRichness
}

// Score implements Strategy.
func (s *SignalRichness) Score(pool []*selection.Candidate) []selection.Scored {
	var maxPresence, maxSearch, maxResale float64
	for _, c := range pool {
		maxPresence = max(maxPresence, float64(c.PresenceScore))
		maxSearch = max(maxSearch, recentSearch(c))
		if c.ResaleRatio != nil {
			maxResale = max(maxResale, *c.ResaleRatio)
		}
	}

	out := make([]selection.Scored, len(pool))
	for i, c := range pool {
		values := map[string]float64{
			DimSalesPresence:   ratioToMax(float64(c.PresenceScore), maxPresence),
			DimSearchInterest:  ratioToMax(recentSearch(c), maxSearch),
			DimSentiment:       sentimentScore(c.Sentiment),
			DimPricePosition:   0,
			DimResaleRetention: 0,
		}
		if c.PricePosition != nil {
			values[DimPricePosition] = c.PricePosition.Tier.Value()
		}
		if c.ResaleRatio != nil {
			values[DimResaleRetention] = ratioToMax(*c.ResaleRatio, maxResale)
		}
		out[i] = selection.Scored{Candidate: c, Scores: weighted(s.Name(), SignalDimensions, values)}
	}
	return out
}

// recentSearch prefers 30-day search interest, then keyword search volume.
func recentSearch(c *selection.Candidate) float64 {
	if c.SearchInterest != nil {
		return float64(c.SearchInterest.Volume30d)
	}
	if c.Keyword != nil {
		return float64(c.Keyword.MonthlySearchVolume)
	}
	return 0
}

func sentimentScore(s *selection.Sentiment) float64 {
	if s == nil || s.TotalPosts <= 0 {
		return neutralSentiment
	}
	return clamp((s.SatisfactionRate() - s.ComplaintRate() + 1) / 2)
}

var _ Strategy = (*SignalRichness)(nil)
