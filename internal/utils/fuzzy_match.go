package utils

import (
	"strings"
)

// navPointAliases maps common phrasings from player input to the vocabulary
// level designers tend to use when naming navigation points.
var navPointAliases = map[string][]string{
	"fountain":   {"fountain", "water fountain", "plaza fountain"},
	"gate":       {"gate", "main gate", "city gate", "entrance"},
	"market":     {"market", "marketplace", "bazaar", "market square"},
	"tavern":     {"tavern", "inn", "pub", "bar"},
	"tower":      {"tower", "watchtower", "guard tower"},
	"bridge":     {"bridge", "stone bridge", "drawbridge"},
	"dock":       {"dock", "docks", "pier", "harbor", "harbour"},
	"temple":     {"temple", "shrine", "church", "chapel"},
	"forge":      {"forge", "smithy", "blacksmith"},
	"well":       {"well", "village well"},
	"camp":       {"camp", "campfire", "campsite"},
	"spawn":      {"spawn", "spawn point", "start"},
	"courtyard":  {"courtyard", "yard", "plaza", "square"},
	"stable":     {"stable", "stables", "horse pen"},
	"graveyard":  {"graveyard", "cemetery", "crypt"},
	"lighthouse": {"lighthouse", "beacon"},
}

// FuzzyMatchNavPoint reports whether a spoken location name refers to a
// registered navigation point name
func FuzzyMatchNavPoint(spoken, navPoint string) bool {
	spokenLower := strings.ToLower(strings.TrimSpace(spoken))
	navLower := strings.ToLower(strings.TrimSpace(navPoint))

	if spokenLower == "" || navLower == "" {
		return false
	}

	// Exact match
	if spokenLower == navLower {
		return true
	}

	// Contains match either way: "the fountain" vs "Fountain",
	// "Fountain" vs "Fountain Square"
	if strings.Contains(navLower, spokenLower) || strings.Contains(spokenLower, navLower) {
		return true
	}

	// Alias match: both sides mention vocabulary from the same alias group
	for key, values := range navPointAliases {
		if !strings.Contains(spokenLower, key) && !containsAny(spokenLower, values) {
			continue
		}
		if strings.Contains(navLower, key) || containsAny(navLower, values) {
			return true
		}
	}

	return false
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// NormalizeNavPointName collapses a spoken location to the canonical alias
// group key when one applies, otherwise returns the trimmed input
func NormalizeNavPointName(spoken string) string {
	spokenLower := strings.ToLower(strings.TrimSpace(spoken))

	for key, values := range navPointAliases {
		if strings.Contains(spokenLower, key) {
			return key
		}
		for _, alias := range values {
			if strings.Contains(spokenLower, alias) {
				return key
			}
		}
	}

	return strings.TrimSpace(spoken)
}
