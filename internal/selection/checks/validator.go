// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package checks runs the business-rule checks on a selection and repairs
// manufacturer collisions by substitution.
//
// Every call produces a fresh finding per check, in this order:
// brand_diversity, price_spread, data_sufficiency, recency, availability.
// Only brand_diversity is repairable.
package checks

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tomtom215/shortlist/internal/selection"
	"github.com/tomtom215/shortlist/internal/selection/slots"
)

// Check names.
const (
	CheckBrandDiversity  = "brand_diversity"
	CheckPriceSpread     = "price_spread"
	CheckDataSufficiency = "data_sufficiency"
	CheckRecency         = "recency"
	CheckAvailability    = "availability"
)

// daysPerMonth converts the recency window to days.
const daysPerMonth = 30

// Validator checks selections against a policy as of a fixed date.
type Validator struct {
	policy selection.Policy
	asOf   time.Time
	logger zerolog.Logger
}

// New creates a Validator. asOf anchors the recency window; pass the run date.
//
//nolint:gocritic // Policy and zerolog.Logger are passed by value
func New(policy selection.Policy, asOf time.Time, logger zerolog.Logger) *Validator {
	return &Validator{
		policy: policy.Clone(),
		asOf:   asOf,
		logger: logger.With().Str("component", "checks").Logger(),
	}
}

// Validate runs all five checks.
func (v *Validator) Validate(picks []selection.Slot) []selection.Finding {
	return []selection.Finding{
		v.brandDiversity(picks),
		v.priceSpread(picks),
		v.dataSufficiency(picks),
		v.recency(picks),
		v.availability(picks),
	}
}

// ValidateAndFix validates, and on a brand_diversity failure makes one
// substitution pass over the duplicates using the scored pool. The repaired
// selection is re-validated. When any duplicate has no replacement the
// original selection and findings are returned unchanged.
func (v *Validator) ValidateAndFix(picks []selection.Slot, pool []selection.Scored) ([]selection.Slot, []selection.Finding, []string) {
	findings := v.Validate(picks)
	if findings[0].Passed || !v.policy.Diversity {
		return picks, findings, nil
	}

	repaired, notes, ok := v.fixDiversity(picks, pool)
	if !ok {
		v.logger.Warn().Str("detail", findings[0].Detail).Msg("Brand diversity could not be repaired")
		return picks, findings, nil
	}

	v.logger.Info().Strs("swaps", notes).Msg("Brand diversity repaired")
	return repaired, v.Validate(repaired), notes
}

func (v *Validator) fixDiversity(picks []selection.Slot, pool []selection.Scored) ([]selection.Slot, []string, bool) {
	selected := make(map[string]bool, len(picks))
	used := make(map[string]bool, len(picks))
	for _, p := range picks {
		selected[p.Name] = true
		used[p.Manufacturer] = true
	}

	seen := make(map[string]bool, len(picks))
	var duplicates []int
	for i, p := range picks {
		if seen[p.Manufacturer] {
			duplicates = append(duplicates, i)
			continue
		}
		seen[p.Manufacturer] = true
	}
	if len(duplicates) == 0 {
		return nil, nil, false
	}

	ordered := slots.Rank(pool)
	out := make([]selection.Slot, len(picks))
	copy(out, picks)
	notes := make([]string, 0, len(duplicates))

	for _, idx := range duplicates {
		current := picks[idx]

		best, found := firstWhere(ordered, func(c *selection.Candidate) bool {
			return !selected[c.Name] && !used[c.Manufacturer]
		})
		if !found {
			best, found = firstWhere(ordered, func(c *selection.Candidate) bool {
				return !selected[c.Name] && c.Manufacturer != current.Manufacturer
			})
		}
		if !found {
			return nil, nil, false
		}

		replacement := selection.NewSlot(current.Rank, current.Label, best,
			[]string{fmt.Sprintf("Swapped from %s for brand diversity", current.Name)})
		if used[best.Candidate.Manufacturer] {
			replacement.Relaxed = true
			replacement.Reasons = append(replacement.Reasons, slots.ReasonDiversityRelaxed)
		}
		out[idx] = replacement

		selected[best.Candidate.Name] = true
		used[best.Candidate.Manufacturer] = true
		notes = append(notes, fmt.Sprintf("rank %d: %s -> %s", current.Rank, current.Name, best.Candidate.Name))
	}

	return out, notes, true
}

func firstWhere(ordered []selection.Scored, ok func(*selection.Candidate) bool) (selection.Scored, bool) {
	for _, sc := range ordered {
		if ok(sc.Candidate) {
			return sc, true
		}
	}
	return selection.Scored{}, false
}

func (v *Validator) brandDiversity(picks []selection.Slot) selection.Finding {
	var unique, duplicates []string
	seen := make(map[string]bool, len(picks))
	dupSeen := make(map[string]bool)
	for _, p := range picks {
		if !seen[p.Manufacturer] {
			seen[p.Manufacturer] = true
			unique = append(unique, p.Manufacturer)
			continue
		}
		if !dupSeen[p.Manufacturer] {
			dupSeen[p.Manufacturer] = true
			duplicates = append(duplicates, p.Manufacturer)
		}
	}

	if len(duplicates) == 0 {
		return selection.Finding{
			CheckName: CheckBrandDiversity,
			Passed:    true,
			Detail:    fmt.Sprintf("%d unique manufacturers: %s", len(unique), strings.Join(unique, ", ")),
		}
	}
	if !v.policy.Diversity {
		return selection.Finding{
			CheckName: CheckBrandDiversity,
			Passed:    true,
			Detail:    fmt.Sprintf("Diversity not required; shared manufacturer(s): %s", strings.Join(duplicates, ", ")),
		}
	}
	return selection.Finding{
		CheckName: CheckBrandDiversity,
		Passed:    false,
		Detail:    fmt.Sprintf("Duplicate manufacturer(s): %s", strings.Join(duplicates, ", ")),
	}
}

func (v *Validator) priceSpread(picks []selection.Slot) selection.Finding {
	var minP, maxP int64
	known := 0
	for _, p := range picks {
		price := slotPrice(p)
		if price <= 0 {
			continue
		}
		if known == 0 || price < minP {
			minP = price
		}
		if price > maxP {
			maxP = price
		}
		known++
	}

	if known < 2 {
		return selection.Finding{CheckName: CheckPriceSpread, Passed: true, Detail: "Insufficient price data to check"}
	}

	ratio := float64(maxP) / float64(minP)
	printer := message.NewPrinter(language.Korean)
	return selection.Finding{
		CheckName: CheckPriceSpread,
		Passed:    ratio >= v.policy.PriceSpreadRatio,
		Detail:    printer.Sprintf("%.2fx ratio (%d to %d), need %.2fx", ratio, minP, maxP, v.policy.PriceSpreadRatio),
	}
}

func (v *Validator) dataSufficiency(picks []selection.Slot) selection.Finding {
	threshold := v.policy.MinCommunityPosts
	var insufficient []string
	for _, p := range picks {
		posts := 0
		if p.Candidate != nil && p.Candidate.Sentiment != nil {
			posts = p.Candidate.Sentiment.TotalPosts
		}
		if posts < threshold {
			insufficient = append(insufficient, fmt.Sprintf("%s (%d posts)", p.Name, posts))
		}
	}

	if len(insufficient) == 0 {
		return selection.Finding{
			CheckName: CheckDataSufficiency,
			Passed:    true,
			Detail:    fmt.Sprintf("All products have >= %d community posts", threshold),
		}
	}
	return selection.Finding{
		CheckName: CheckDataSufficiency,
		Passed:    false,
		Detail:    fmt.Sprintf("Below %d posts: %s", threshold, strings.Join(insufficient, "; ")),
	}
}

func (v *Validator) recency(picks []selection.Slot) selection.Finding {
	months := v.policy.MaxAgeMonths
	cutoff := v.asOf.AddDate(0, 0, -months*daysPerMonth)

	var old []string
	for _, p := range picks {
		if p.Candidate == nil {
			continue
		}
		released, ok := p.Candidate.Released()
		if ok && released.Before(cutoff) {
			old = append(old, p.Name)
		}
	}

	if len(old) == 0 {
		return selection.Finding{
			CheckName: CheckRecency,
			Passed:    true,
			Detail:    fmt.Sprintf("All products within %d months", months),
		}
	}
	return selection.Finding{
		CheckName: CheckRecency,
		Passed:    false,
		Detail:    fmt.Sprintf("Older than %d months: %s", months, strings.Join(old, ", ")),
	}
}

func (v *Validator) availability(picks []selection.Slot) selection.Finding {
	var unavailable []string
	for _, p := range picks {
		if p.Candidate != nil && !p.Candidate.InStock {
			unavailable = append(unavailable, p.Name)
		}
	}

	if len(unavailable) == 0 {
		return selection.Finding{CheckName: CheckAvailability, Passed: true, Detail: "All products in stock"}
	}
	return selection.Finding{
		CheckName: CheckAvailability,
		Passed:    false,
		Detail:    fmt.Sprintf("Out of stock: %s", strings.Join(unavailable, ", ")),
	}
}

func slotPrice(p selection.Slot) int64 {
	if p.Candidate != nil {
		return p.Candidate.BestPrice()
	}
	return p.Price
}
