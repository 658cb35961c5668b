// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package selection

import (
	"fmt"

	"github.com/tomtom215/shortlist/internal/validation"
)

// Strategy names accepted by Policy.Strategy.
const (
	StrategyCommercialValue = "commercial_value"
	StrategySignalRichness  = "signal_richness"
)

// DefaultCategorySuffixes are generic category words stripped before name comparison.
var DefaultCategorySuffixes = []string{
	"로봇청소기", "물걸레로봇", "로봇물걸레", "청소기", "공기청정기", "건조기", "식기세척기",
}

// Policy is the per-category rule set passed by value into every stage.
// Stages must not mutate it; use Clone before adjusting a copy.
type Policy struct {
	// Category is the storage key of the category, e.g. "robot-vacuum".
	Category string `koanf:"category" json:"category" validate:"required,categorykey"`

	// MinPresence drops candidates seen on fewer platforms.
	// Default: 2
	MinPresence int `koanf:"min_presence" json:"min_presence" validate:"min=1"`

	// Diversity enforces distinct manufacturers during slot selection.
	// Default: true
	Diversity bool `koanf:"diversity" json:"diversity"`

	// PriceSpreadRatio is the minimum max/min price ratio across picks.
	// Default: 1.3
	PriceSpreadRatio float64 `koanf:"price_spread_ratio" json:"price_spread_ratio" validate:"gt=0"`

	// MinCommunityPosts is the data-sufficiency threshold per pick.
	// Default: 20
	MinCommunityPosts int `koanf:"min_community_posts" json:"min_community_posts" validate:"min=0"`

	// MaxAgeMonths is the recency window; a month counts as 30 days.
	// Default: 18
	MaxAgeMonths int `koanf:"max_age_months" json:"max_age_months" validate:"min=1"`

	// TargetCount is N, the number of slots to fill.
	// Default: 3
	TargetCount int `koanf:"target_count" json:"target_count" validate:"min=1,max=10"`

	// OrganicTopN bounds the recommendation counter output.
	// Default: 2
	OrganicTopN int `koanf:"organic_top_n" json:"organic_top_n" validate:"min=1,max=10"`

	// PreferredPlatform supplies the product code when it observed the product.
	// Default: danawa
	PreferredPlatform string `koanf:"preferred_platform" json:"preferred_platform"`

	// Strategy pins a scoring strategy. Empty selects by available signals.
	Strategy string `koanf:"strategy" json:"strategy,omitempty" validate:"omitempty,oneof=commercial_value signal_richness"`

	// SlotLabels name slots by rank; ranks past the list get "pick-N".
	SlotLabels []string `koanf:"slot_labels" json:"slot_labels"`

	// CategorySuffixes are stripped from names before substring and fuzzy matching.
	CategorySuffixes []string `koanf:"category_suffixes" json:"category_suffixes"`
}

// DefaultPolicy returns the default policy for the given category.
func DefaultPolicy(category string) Policy {
	return Policy{
		Category:          category,
		MinPresence:       2,
		Diversity:         true,
		PriceSpreadRatio:  1.3,
		MinCommunityPosts: 20,
		MaxAgeMonths:      18,
		TargetCount:       3,
		OrganicTopN:       2,
		PreferredPlatform: "danawa",
		SlotLabels:        []string{"value", "balance", "premium"},
		CategorySuffixes:  append([]string(nil), DefaultCategorySuffixes...),
	}
}

// Validate checks the policy fields.
//
//nolint:gocritic // Policy is passed by value to keep it immutable across stages
func (p Policy) Validate() error {
	if err := validation.ValidateStruct(&p); err != nil {
		return fmt.Errorf("invalid policy for %q: %w", p.Category, err)
	}
	return nil
}

// Clone returns a deep copy of the policy.
//
//nolint:gocritic // Policy is passed by value to keep it immutable across stages
func (p Policy) Clone() Policy {
	p.SlotLabels = append([]string(nil), p.SlotLabels...)
	p.CategorySuffixes = append([]string(nil), p.CategorySuffixes...)
	return p
}

// SlotLabel returns the label for a 1-based rank.
//
//nolint:gocritic // Policy is passed by value to keep it immutable across stages
func (p Policy) SlotLabel(rank int) string {
	if rank >= 1 && rank <= len(p.SlotLabels) {
		return p.SlotLabels[rank-1]
	}
	return fmt.Sprintf("pick-%d", rank)
}
