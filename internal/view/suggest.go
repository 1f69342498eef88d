package view

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Suggest returns up to limit titles that fuzzy-match search. It is meant for
// the empty state when the substring filter found nothing and does not affect
// Build.
func Suggest(entries []domain.Entry, search string, limit int) []string {
	search = strings.TrimSpace(search)
	if search == "" || len(entries) == 0 || limit <= 0 {
		return nil
	}

	lowerTitles := make([]string, len(entries))
	for i, e := range entries {
		lowerTitles[i] = strings.ToLower(e.Title)
	}

	matches := fuzzy.Find(strings.ToLower(search), lowerTitles)

	seen := make(map[string]bool)
	var out []string
	for _, match := range matches {
		title := entries[match.Index].Title
		if seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, title)
		if len(out) == limit {
			break
		}
	}
	return out
}
