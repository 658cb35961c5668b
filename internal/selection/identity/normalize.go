// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package identity

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// MinModelCodeLen is the minimum length of a model code after hyphen removal.
	MinModelCodeLen = 5

	// MinModelTokenLen is the minimum length of a prefix-matchable model token.
	MinModelTokenLen = 4
)

var (
	// bracketed matches (...), [...], （...） and 【...】 segments.
	bracketed = regexp.MustCompile(`[\(\[（【][^)\]）】]*[\)\]）】]`)

	// codeCandidate requires at least 5 raw characters.
	codeCandidate = regexp.MustCompile(`[A-Za-z0-9](?:[A-Za-z0-9\-]{3,}[A-Za-z0-9])`)

	// tokenCandidate requires at least 4 raw characters.
	tokenCandidate = regexp.MustCompile(`[A-Za-z0-9](?:[A-Za-z0-9\-]{2,}[A-Za-z0-9])`)
)

// Normalizer canonicalizes product names for text comparison.
// It is safe for concurrent use.
type Normalizer struct {
	suffixes []string
}

// NewNormalizer returns a normalizer that also strips the given category
// suffix words. Longer suffixes are removed first.
func NewNormalizer(suffixes []string) *Normalizer {
	s := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		suffix = strings.ToLower(strings.TrimSpace(norm.NFKC.String(suffix)))
		if suffix != "" {
			s = append(s, suffix)
		}
	}
	sort.SliceStable(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
	return &Normalizer{suffixes: s}
}

// Normalize applies NFKC, lowercases, drops bracketed segments and suffix
// words, and collapses whitespace.
func (n *Normalizer) Normalize(name string) string {
	s := strings.ToLower(norm.NFKC.String(name))
	s = bracketed.ReplaceAllString(s, " ")
	for _, suffix := range n.suffixes {
		s = strings.ReplaceAll(s, suffix, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// Key is the suffix-free normalization used to group organic mentions.
func Key(name string) string {
	s := strings.ToLower(norm.NFKC.String(name))
	s = bracketed.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ModelCode returns the first alphanumeric token of at least MinModelCodeLen
// characters that mixes letters and digits, uppercased with hyphens removed.
func ModelCode(name string) string {
	for _, raw := range codeCandidate.FindAllString(name, -1) {
		if code, ok := modelToken(raw, MinModelCodeLen); ok {
			return code
		}
	}
	return ""
}

// ModelTokens returns every model-like token of at least MinModelTokenLen characters.
func ModelTokens(name string) []string {
	var tokens []string
	for _, raw := range tokenCandidate.FindAllString(name, -1) {
		if tok, ok := modelToken(raw, MinModelTokenLen); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func modelToken(raw string, minLen int) (string, bool) {
	clean := strings.ToUpper(strings.ReplaceAll(raw, "-", ""))
	if len(clean) < minLen {
		return "", false
	}
	var letter, digit bool
	for _, r := range clean {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return clean, letter && digit
}
