// Package fuzzy ranks known identifiers by similarity to a misspelled query.
// It backs the "did you mean" suggestions for unknown merchant, category,
// and view names, so all three share one algorithm and threshold.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Defaults shared by every suggestion call site.
const (
	DefaultThreshold      = 0.5
	DefaultMaxSuggestions = 3
)

// Suggest returns up to max candidates scoring at least threshold similarity
// against the query, best first. Ties break on case-insensitive alphabetical
// order. An empty query or candidate set yields no suggestions.
func Suggest(query string, candidates []string, max int, threshold float64) []string {
	if query == "" || len(candidates) == 0 || max <= 0 {
		return nil
	}

	type scored struct {
		name  string
		score float64
	}

	lowered := strings.ToLower(query)
	matches := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		score := Similarity(lowered, strings.ToLower(candidate))
		if score >= threshold {
			matches = append(matches, scored{name: candidate, score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return strings.ToLower(matches[i].name) < strings.ToLower(matches[j].name)
	})

	if len(matches) > max {
		matches = matches[:max]
	}
	suggestions := make([]string, 0, len(matches))
	for _, m := range matches {
		suggestions = append(suggestions, m.name)
	}
	return suggestions
}

// Similarity returns the normalized edit-distance similarity of two strings
// in [0, 1], where 1 means identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
