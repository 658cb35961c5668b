// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package selection

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// manufacturerAliases maps lowercase name prefixes and brand labels to a
// canonical manufacturer.
var manufacturerAliases = map[string]string{
	"samsung": "Samsung", "삼성": "Samsung", "삼성전자": "Samsung",
	"lg": "LG", "lg전자": "LG", "엘지": "LG", "엘지전자": "LG",
	"roborock": "Roborock", "로보락": "Roborock",
	"ecovacs": "Ecovacs", "에코백스": "Ecovacs",
	"dreame": "Dreame", "드리미": "Dreame",
	"xiaomi": "Xiaomi", "샤오미": "Xiaomi",
	"dyson": "Dyson", "다이슨": "Dyson",
	"irobot": "iRobot", "아이로봇": "iRobot", "roomba": "iRobot", "룸바": "iRobot",
	"narwal": "Narwal", "나르왈": "Narwal",
	"cuckoo": "Cuckoo", "쿠쿠": "Cuckoo",
	"coway": "Coway", "코웨이": "Coway",
	"winix": "Winix", "위닉스": "Winix",
	"skmagic": "SK Magic", "sk매직": "SK Magic",
	"philips": "Philips", "필립스": "Philips",
	"tineco": "Tineco", "티네코": "Tineco",
}

// glued holds the non-ASCII alias keys, longest first, for names where the
// maker is written without a space ("삼성비스포크").
var glued = func() []string {
	var keys []string
	for k := range manufacturerAliases {
		if !isASCII(k) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

var bracketed = regexp.MustCompile(`[\(\[（【][^)\]）】]*[\)\]）】]`)

// title capitalizes an unknown maker. Casers are stateful, so one per call.
func title(s string) string {
	return cases.Title(language.Und).String(s)
}

// Manufacturer derives the manufacturer from a product name, consulting the
// brand label only when the name does not lead with a known maker. Brand
// labels may be product lines ("Bespoke"), so the name wins.
func Manufacturer(name, brand string) string {
	lead := leadToken(name)

	if m, ok := lookupManufacturer(lead); ok {
		return m
	}
	if m, ok := lookupManufacturer(strings.TrimSpace(brand)); ok {
		return m
	}
	if lead != "" && !hasDigit(lead) {
		return title(lead)
	}
	if b := strings.TrimSpace(brand); b != "" {
		return title(b)
	}
	return lead
}

func lookupManufacturer(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	key := strings.ToLower(token)
	if m, ok := manufacturerAliases[key]; ok {
		return m, true
	}
	for _, k := range glued {
		if strings.HasPrefix(key, k) {
			return manufacturerAliases[k], true
		}
	}
	return "", false
}

// leadToken returns the first word of name outside brackets, cut at '-', '_' or '/'.
func leadToken(name string) string {
	fields := strings.Fields(bracketed.ReplaceAllString(name, " "))
	if len(fields) == 0 {
		return ""
	}
	lead := fields[0]
	if i := strings.IndexAny(lead, "-_/"); i > 0 {
		lead = lead[:i]
	}
	return lead
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
