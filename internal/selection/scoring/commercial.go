// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package scoring

import (
	"github.com/tomtom215/shortlist/internal/selection"
)

// Commercial value dimensions.
const (
	DimClicks      = "clicks"
	DimCPC         = "cpc"
	DimSearch      = "search_volume"
	DimCompetition = "competition"
)

// CommercialDimensions are the weighted axes of the commercial_value strategy.
var CommercialDimensions = []Dimension{
	{Name: DimClicks, Weight: 0.4},
	{Name: DimCPC, Weight: 0.3},
	{Name: DimSearch, Weight: 0.2},
	{Name: DimCompetition, Weight: 0.1},
}

// CommercialValue scores candidates from keyword-ad metrics. Numeric
// dimensions are value / pool maximum with the maximum floored at 1.
// Candidates without metrics score 0 on every dimension.
type CommercialValue struct{}

// NewCommercialValue creates the commercial_value strategy.
func NewCommercialValue() *CommercialValue {
	return &CommercialValue{}
}

// Name implements Strategy.
func (s *CommercialValue) Name() string {
	return selection.StrategyCommercialValue
}

// Score implements Strategy.
func (s *CommercialValue) Score(pool []*selection.Candidate) []selection.Scored {
	var maxClicks, maxCPC, maxSearch float64
	for _, c := range pool {
		if k := c.Keyword; k != nil {
			maxClicks = max(maxClicks, k.MonthlyClicks)
			maxCPC = max(maxCPC, k.AvgCPC)
			maxSearch = max(maxSearch, float64(k.MonthlySearchVolume))
		}
	}

	out := make([]selection.Scored, len(pool))
	for i, c := range pool {
		values := map[string]float64{DimClicks: 0, DimCPC: 0, DimSearch: 0, DimCompetition: 0}
		if k := c.Keyword; k != nil {
			values[DimClicks] = ratioToFloor(k.MonthlyClicks, maxClicks)
			values[DimCPC] = ratioToFloor(k.AvgCPC, maxCPC)
			values[DimSearch] = ratioToFloor(float64(k.MonthlySearchVolume), maxSearch)
			values[DimCompetition] = k.Competition.Value()
		}
		out[i] = selection.Scored{Candidate: c, Scores: weighted(s.Name(), CommercialDimensions, values)}
	}
	return out
}

var _ Strategy = (*CommercialValue)(nil)
