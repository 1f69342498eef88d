package view

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// EffectiveRating is the value the rating sort compares: the personal rating
// ordinal (1-5) when set, otherwise the external 0-10 rating. The two scales
// are compared directly.
func EffectiveRating(e domain.Entry) float64 {
	if n := e.PersonalRating.Ordinal(); n > 0 {
		return float64(n)
	}
	return e.ExternalRating
}

// sortEntries orders entries in place. All sorts are stable.
func sortEntries(entries []domain.Entry, key SortKey) {
	switch key {
	case SortAlphabetical:
		// Collators carry scratch buffers and are not safe for concurrent use
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(entries, func(a, b domain.Entry) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortRating:
		slices.SortStableFunc(entries, func(a, b domain.Entry) int {
			return cmp.Compare(EffectiveRating(b), EffectiveRating(a))
		})
	default:
		slices.SortStableFunc(entries, func(a, b domain.Entry) int {
			return cmp.Compare(b.AddedAt, a.AddedAt)
		})
	}
}
