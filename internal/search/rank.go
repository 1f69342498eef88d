// Package search ranks metadata candidates by how well their titles match a
// free-text query.
package search

import (
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Rank orders candidates by match quality, best first. Candidates with equal
// scores keep their incoming (catalog popularity) order. The input slice is
// not modified.
func Rank(query string, candidates []domain.Candidate) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return slices.Clone(candidates)
	}

	type rankedItem struct {
		item  domain.Candidate
		score int
	}

	ranked := make([]rankedItem, 0, len(candidates))
	for _, c := range candidates {
		title := strings.ToLower(c.Title)
		ranked = append(ranked, rankedItem{item: c, score: calculateMatchScore(title, query)})
	}

	// Lower score = better match
	slices.SortStableFunc(ranked, func(a, b rankedItem) int {
		return a.score - b.score
	})

	results := make([]domain.Candidate, len(ranked))
	for i, r := range ranked {
		results[i] = r.item
	}
	return results
}

// calculateMatchScore scores a lowercase title against a lowercase query.
// Lower score = better match.
func calculateMatchScore(title, query string) int {
	// Exact match is best
	if title == query {
		return 0
	}

	// Prefix match is very good
	if strings.HasPrefix(title, query) {
		return 10
	}

	// Contains match is good
	if strings.Contains(title, query) {
		return 50
	}

	// Every query rune appears in order ("lotr" style abbreviations)
	if fuzzy.Match(query, title) {
		return 75 + fuzzy.RankMatch(query, title)
	}

	return 100 + fuzzy.LevenshteinDistance(query, title)
}
