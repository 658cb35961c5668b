// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package identity decides whether two product-name strings denote the same
// product. Tiers run in order and the first success reports its method:
//
//  1. model_code: equal leading model codes
//  2. model_code_prefix: one model token prefixes another (4+ chars)
//  3. substring: one normalized name contains the other (shorter 5+ chars)
//  4. fuzzy_ratio: LCS ratio >= FuzzyThreshold, aggregation only
package identity

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Method identifies the tier that produced a match.
type Method string

// Match methods.
const (
	MethodModelCode       Method = "model_code"
	MethodModelCodePrefix Method = "model_code_prefix"
	MethodSubstring       Method = "substring"
	MethodFuzzyRatio      Method = "fuzzy_ratio"
	MethodNone            Method = "none"
)

const (
	// FuzzyThreshold is the minimum LCS ratio accepted by the fuzzy tier.
	FuzzyThreshold = 0.65

	// MinSubstringLen is the minimum rune length of the shorter name in a substring match.
	MinSubstringLen = 5
)

// Matcher applies the identity tiers. It is safe for concurrent use.
type Matcher struct {
	normalizer *Normalizer
	fuzzy      bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithFuzzy enables the fuzzy_ratio tier.
func WithFuzzy() Option {
	return func(m *Matcher) { m.fuzzy = true }
}

// WithSuffixes sets the category suffix words stripped during normalization.
func WithSuffixes(suffixes []string) Option {
	return func(m *Matcher) { m.normalizer = NewNormalizer(suffixes) }
}

// NewMatcher creates a Matcher. Without options only tiers 1-3 run.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{normalizer: NewNormalizer(nil)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Normalize exposes the matcher's name normalization.
func (m *Matcher) Normalize(name string) string {
	return m.normalizer.Normalize(name)
}

// Match runs every enabled tier on two names.
func (m *Matcher) Match(a, b string) (bool, Method) {
	return m.MatchKeyed(a, b, "")
}

// MatchKeyed is Match where b also carries a grouping key (a model code or
// normalized name) that is treated as one more code or token of b.
func (m *Matcher) MatchKeyed(a, b, bKey string) (bool, Method) {
	if ok, method := m.matchCode(a, b, bKey); ok {
		return true, method
	}
	return m.MatchText(a, b)
}

// MatchText runs only the text tiers: substring, then fuzzy when enabled.
func (m *Matcher) MatchText(a, b string) (bool, Method) {
	na, nb := m.normalizer.Normalize(a), m.normalizer.Normalize(b)
	if na == "" || nb == "" {
		return false, MethodNone
	}
	if substringMatch(na, nb) {
		return true, MethodSubstring
	}
	if m.fuzzy && ratio(na, nb) >= FuzzyThreshold {
		return true, MethodFuzzyRatio
	}
	return false, MethodNone
}

// Ratio returns the LCS similarity of the normalized names in [0,1].
func (m *Matcher) Ratio(a, b string) float64 {
	return ratio(m.normalizer.Normalize(a), m.normalizer.Normalize(b))
}

func (m *Matcher) matchCode(a, b, bKey string) (bool, Method) {
	codeA := ModelCode(a)
	if codeA != "" {
		if codeB := ModelCode(b); codeA == codeB {
			return true, MethodModelCode
		}
		if bKey != "" && strings.ToUpper(bKey) == codeA {
			return true, MethodModelCode
		}
	}

	tokensA := ModelTokens(a)
	if len(tokensA) == 0 {
		return false, MethodNone
	}
	tokensB := ModelTokens(b)
	// Name keys contain spaces and never act as tokens.
	if bKey != "" && !strings.ContainsRune(bKey, ' ') {
		if tok, ok := modelToken(bKey, MinModelTokenLen); ok && !contains(tokensB, tok) {
			tokensB = append(tokensB, tok)
		}
	}
	for _, ta := range tokensA {
		for _, tb := range tokensB {
			shorter, longer := ta, tb
			if len(tb) < len(ta) {
				shorter, longer = tb, ta
			}
			if len(shorter) >= MinModelTokenLen && strings.HasPrefix(longer, shorter) {
				return true, MethodModelCodePrefix
			}
		}
	}
	return false, MethodNone
}

// substringMatch requires the shorter side to have MinSubstringLen runes,
// equal names included, so names reduced to a bare brand never match.
func substringMatch(a, b string) bool {
	shorter, longer := a, b
	if utf8.RuneCountInString(b) < utf8.RuneCountInString(a) {
		shorter, longer = b, a
	}
	return utf8.RuneCountInString(shorter) >= MinSubstringLen && strings.Contains(longer, shorter)
}

// ratio is 2*LCS/(len(a)+len(b)) over runes. The LCS length is the total
// length of the equal segments of a minimal Myers diff; DiffTimeout 0
// disables the time cutoff so the result is deterministic.
func ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	var common int
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			common += utf8.RuneCountInString(d.Text)
		}
	}
	return 2 * float64(common) / float64(total)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
