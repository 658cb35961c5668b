// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package selection

import (
	"time"
)

// Observation is one platform's observed rank for one product name.
// Produced by external collectors; never mutated by the engine.
type Observation struct {
	ProductName string  `json:"product_name"`
	Brand       string  `json:"brand"`
	Platform    string  `json:"platform"`
	Rank        int     `json:"rank"`
	ReviewCount int     `json:"review_count"`
	Rating      float64 `json:"rating"`
	Price       int64   `json:"price"`
	ProductCode string  `json:"product_code"`
}

// Competition is the advertiser competition level for a keyword.
type Competition string

// Competition levels.
const (
	CompetitionLow    Competition = "low"
	CompetitionMedium Competition = "medium"
	CompetitionHigh   Competition = "high"
)

// Value maps the level onto [0,1]. Unknown levels score as low.
func (c Competition) Value() float64 {
	switch c {
	case CompetitionHigh:
		return 1.0
	case CompetitionMedium:
		return 0.5
	default:
		return 0.0
	}
}

// KeywordMetrics are search-ad metrics for a candidate's name.
type KeywordMetrics struct {
	MonthlySearchVolume int64       `json:"monthly_search_volume"`
	MonthlyClicks       float64     `json:"monthly_clicks"`
	AvgCPC              float64     `json:"avg_cpc"`
	Competition         Competition `json:"competition"`
}

// Sentiment summarizes community posts about a product.
type Sentiment struct {
	TotalPosts    int `json:"total_posts"`
	NegativePosts int `json:"negative_posts"`
	PositivePosts int `json:"positive_posts"`
}

// ComplaintRate is negative/total, or 0 without posts.
func (s Sentiment) ComplaintRate() float64 {
	if s.TotalPosts <= 0 {
		return 0
	}
	return float64(s.NegativePosts) / float64(s.TotalPosts)
}

// SatisfactionRate is positive/total, or 0 without posts.
func (s Sentiment) SatisfactionRate() float64 {
	if s.TotalPosts <= 0 {
		return 0
	}
	return float64(s.PositivePosts) / float64(s.TotalPosts)
}

// PriceTier is a candidate's relative price band within its pool.
type PriceTier string

// Price tiers.
const (
	TierBudget  PriceTier = "budget"
	TierMid     PriceTier = "mid"
	TierPremium PriceTier = "premium"
)

// Value maps the tier onto [0,1] for scoring.
func (t PriceTier) Value() float64 {
	switch t {
	case TierPremium:
		return 1.0
	case TierMid:
		return 0.5
	default:
		return 0.0
	}
}

// Valid reports whether t is one of the known tiers.
func (t PriceTier) Valid() bool {
	return t == TierBudget || t == TierMid || t == TierPremium
}

// PricePosition is a candidate's price and where it sits in the pool.
type PricePosition struct {
	CurrentPrice int64     `json:"current_price"`
	Tier         PriceTier `json:"price_tier"`
	Normalized   float64   `json:"price_normalized"`
}

// SearchInterest is recent search volume for a candidate.
type SearchInterest struct {
	Volume30d int64  `json:"volume_30d"`
	Volume90d int64  `json:"volume_90d"`
	Trend     string `json:"trend_direction,omitempty"`
}

// Signals are optional per-candidate attachments keyed by product name.
// Every field may be absent; scoring substitutes neutral values.
type Signals struct {
	Keyword        *KeywordMetrics `json:"keyword_metrics,omitempty"`
	Sentiment      *Sentiment      `json:"sentiment,omitempty"`
	PriceTier      PriceTier       `json:"price_tier,omitempty"`
	ResaleRatio    *float64        `json:"resale_ratio,omitempty"`
	SearchInterest *SearchInterest `json:"search_interest,omitempty"`
	// ReleaseDate is YYYY-MM-DD.
	ReleaseDate string `json:"release_date,omitempty"`
	InStock     *bool  `json:"in_stock,omitempty"`
}

// ResaleRatio returns used/new, or 0 when the new price is not positive.
func ResaleRatio(usedPrice, newPrice int64) float64 {
	if newPrice <= 0 {
		return 0
	}
	return float64(usedPrice) / float64(newPrice)
}

// Candidate is a deduplicated product identity built by the aggregator.
// Only signal attachment mutates it after construction.
type Candidate struct {
	Name         string        `json:"name"`
	Brand        string        `json:"brand"`
	Manufacturer string        `json:"manufacturer"`
	Category     string        `json:"category"`
	ProductCode  string        `json:"product_code,omitempty"`
	Observations []Observation `json:"observations"`
	// PresenceScore is the number of distinct platforms among Observations.
	PresenceScore int     `json:"presence_score"`
	AvgRank       float64 `json:"avg_rank"`
	Price         int64   `json:"price"`

	Keyword        *KeywordMetrics `json:"keyword_metrics,omitempty"`
	Sentiment      *Sentiment      `json:"sentiment,omitempty"`
	PricePosition  *PricePosition  `json:"price_position,omitempty"`
	ResaleRatio    *float64        `json:"resale_ratio,omitempty"`
	SearchInterest *SearchInterest `json:"search_interest,omitempty"`
	ReleaseDate    string          `json:"release_date,omitempty"`
	InStock        bool            `json:"in_stock"`
}

// Attach copies the present fields of s onto the candidate.
// An upstream price tier overrides any computed one but keeps the price.
func (c *Candidate) Attach(s Signals) {
	if s.Keyword != nil {
		k := *s.Keyword
		c.Keyword = &k
	}
	if s.Sentiment != nil {
		v := *s.Sentiment
		c.Sentiment = &v
	}
	if s.ResaleRatio != nil {
		r := *s.ResaleRatio
		c.ResaleRatio = &r
	}
	if s.SearchInterest != nil {
		si := *s.SearchInterest
		c.SearchInterest = &si
	}
	if s.ReleaseDate != "" {
		c.ReleaseDate = s.ReleaseDate
	}
	if s.InStock != nil {
		c.InStock = *s.InStock
	}
	if s.PriceTier.Valid() {
		pos := PricePosition{CurrentPrice: c.Price, Tier: s.PriceTier, Normalized: 0.5}
		if c.PricePosition != nil {
			pos.CurrentPrice = c.PricePosition.CurrentPrice
			pos.Normalized = c.PricePosition.Normalized
		}
		c.PricePosition = &pos
	}
}

// HasRichSignals reports whether sentiment, resale or price-tier data is present.
func (c *Candidate) HasRichSignals() bool {
	return c.Sentiment != nil || c.ResaleRatio != nil || c.PricePosition != nil
}

// Released parses ReleaseDate. ok is false when the date is unknown or malformed.
func (c *Candidate) Released() (t time.Time, ok bool) {
	if c.ReleaseDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, c.ReleaseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BestPrice is the position price when known, else the lowest positive
// observed price, else 0.
func (c *Candidate) BestPrice() int64 {
	if c.PricePosition != nil && c.PricePosition.CurrentPrice > 0 {
		return c.PricePosition.CurrentPrice
	}
	return c.Price
}

// DimensionScores are a candidate's normalized [0,1] scores under one strategy.
// Treat as immutable once returned by a strategy.
type DimensionScores struct {
	Strategy   string             `json:"strategy"`
	Dimensions map[string]float64 `json:"dimensions"`
	Total      float64            `json:"total"`
}

// Get returns the named dimension, or 0.
func (d DimensionScores) Get(name string) float64 {
	return d.Dimensions[name]
}

// Slot is one ranked pick of a selection.
type Slot struct {
	Rank         int             `json:"rank"`
	Label        string          `json:"slot"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Manufacturer string          `json:"manufacturer"`
	Price        int64           `json:"price"`
	Reasons      []string        `json:"reasons"`
	Scores       DimensionScores `json:"scores"`
	// Relaxed marks a pick admitted despite a manufacturer collision.
	Relaxed   bool       `json:"relaxed,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
}

// NewSlot builds a slot from a scored candidate.
func NewSlot(rank int, label string, sc Scored, reasons []string) Slot {
	return Slot{
		Rank:         rank,
		Label:        label,
		Name:         sc.Candidate.Name,
		Brand:        sc.Candidate.Brand,
		Manufacturer: sc.Candidate.Manufacturer,
		Price:        sc.Candidate.BestPrice(),
		Reasons:      reasons,
		Scores:       sc.Scores,
		Candidate:    sc.Candidate,
	}
}

// Scored pairs a candidate with its dimension scores.
type Scored struct {
	Candidate *Candidate
	Scores    DimensionScores
}

// Finding is the outcome of one validation check.
type Finding struct {
	CheckName string `json:"check_name"`
	Passed    bool   `json:"passed"`
	Detail    string `json:"detail"`
}

// Mention is one raw product-name mention from unstructured text.
type Mention struct {
	ProductName     string   `json:"product_name"`
	SourceLocations []string `json:"source_locations"`
}

// ProductMention is one organically recommended product after grouping.
type ProductMention struct {
	Name          string   `json:"name"`
	NormalizedKey string   `json:"normalized_key"`
	MentionCount  int      `json:"mention_count"`
	Sources       []string `json:"sources"`
}

// SelectionResult is the validated output of the commercial pipeline.
type SelectionResult struct {
	Category          string    `json:"category"`
	SelectionDate     time.Time `json:"selection_date"`
	DataSources       []string  `json:"data_sources"`
	CandidatePoolSize int       `json:"candidate_pool_size"`
	Strategy          string    `json:"strategy"`
	Selected          []Slot    `json:"selected"`
	Validation        []Finding `json:"validation"`
	Fixes             []string  `json:"fixes,omitempty"`
}

// Passed reports whether every validation check passed.
func (r *SelectionResult) Passed() bool {
	for _, f := range r.Validation {
		if !f.Passed {
			return false
		}
	}
	return true
}

// FailedChecks returns the names of failing checks in check order.
func (r *SelectionResult) FailedChecks() []string {
	var failed []string
	for _, f := range r.Validation {
		if !f.Passed {
			failed = append(failed, f.CheckName)
		}
	}
	return failed
}

// RecommendationResult is the output of the organic pipeline.
type RecommendationResult struct {
	Keyword               string           `json:"keyword"`
	TotalMentionsExamined int              `json:"total_mentions_examined"`
	Top                   []ProductMention `json:"top"`
}

// Provenance tags where a final pick came from.
type Provenance string

// Provenance values.
const (
	FromSelection Provenance = "a-pipeline"
	FromOrganic   Provenance = "organic"
	FromBoth      Provenance = "both"
)

// MergeCase names the row of the merge decision table that applied.
type MergeCase string

// Merge cases.
const (
	MergeDefault  MergeCase = "default"
	MergeOverlap1 MergeCase = "overlap_1"
	MergeOverlap2 MergeCase = "overlap_2"
)

// FinalPick is one slot of the published list.
type FinalPick struct {
	Rank        int              `json:"rank"`
	Name        string           `json:"name"`
	Brand       string           `json:"brand"`
	Price       int64            `json:"price"`
	Source      Provenance       `json:"source"`
	Reasons     []string         `json:"reasons"`
	MatchMethod string           `json:"match_method,omitempty"`
	Label       string           `json:"slot,omitempty"`
	SelectRank  int              `json:"a_rank,omitempty"`
	Scores      *DimensionScores `json:"scores,omitempty"`
	// MentionCount and NormalizedKey are set when an organic mention backs the pick.
	MentionCount  int    `json:"mention_count,omitempty"`
	NormalizedKey string `json:"normalized_key,omitempty"`
}

// MatchDetail records one overlap or note produced during the merge.
type MatchDetail struct {
	OrganicRank    int    `json:"organic_rank,omitempty"`
	OrganicProduct string `json:"organic_product,omitempty"`
	SelectRank     int    `json:"a_rank,omitempty"`
	SelectProduct  string `json:"a_product,omitempty"`
	MatchMethod    string `json:"match_method,omitempty"`
	Note           string `json:"note,omitempty"`
}

// FinalSelectionResult is the merged, published selection.
type FinalSelectionResult struct {
	Category      string        `json:"category"`
	SelectionDate time.Time     `json:"selection_date"`
	MergeCase     MergeCase     `json:"merge_case"`
	Final         []FinalPick   `json:"final"`
	MatchDetails  []MatchDetail `json:"match_details"`
}
