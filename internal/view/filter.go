package view

import (
	"fmt"
	"strings"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// SortKey selects the ordering of the view
type SortKey int

const (
	SortRecency SortKey = iota
	SortAlphabetical
	SortRating
)

// SortKeys lists the sort keys in cycle order
var SortKeys = []SortKey{SortRecency, SortAlphabetical, SortRating}

// String returns the display name for the sort key
func (k SortKey) String() string {
	switch k {
	case SortRecency:
		return "Recently Added"
	case SortAlphabetical:
		return "A-Z"
	case SortRating:
		return "Rating"
	default:
		return "Unknown"
	}
}

// Next returns the following sort key, wrapping around
func (k SortKey) Next() SortKey {
	return SortKeys[(int(k)+1)%len(SortKeys)]
}

// Filter is the user-selected filter and sort state.
// Empty Status, Kind and Rating mean "all"; the zero value shows everything
// ordered by recency.
type Filter struct {
	Status domain.Status
	Kind   domain.Kind
	Search string
	Sort   SortKey
	Rating domain.PersonalRating
}

// RatingApplies reports whether the rating filter takes effect, which
// requires watched movies to be selected
func (f Filter) RatingApplies() bool {
	return f.Rating != "" && f.Status == domain.StatusWatched && f.Kind == domain.KindMovie
}

// Sectioned reports whether the view splits into theatrical and streaming
func (f Filter) Sectioned() bool {
	return f.Kind == domain.KindMovie && f.Sort == SortRecency
}

func (f Filter) match(e domain.Entry, needle string) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.RatingApplies() && e.PersonalRating != f.Rating {
		return false
	}
	if needle != "" && !strings.Contains(strings.ToLower(e.Title), needle) {
		return false
	}
	return true
}

// ParseStatusFilter parses "all" or a status name
func ParseStatusFilter(s string) (domain.Status, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "all":
		return "", nil
	case "watching", "inprogress", "in_progress":
		return domain.StatusInProgress, nil
	default:
		st := domain.Status(v)
		if !st.Valid() {
			return "", fmt.Errorf("unknown status %q (want all, watchlist, in-progress or watched)", s)
		}
		return st, nil
	}
}

// ParseKindFilter parses "all" or a kind name
func ParseKindFilter(s string) (domain.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	case "movie", "movies":
		return domain.KindMovie, nil
	case "series", "show", "shows", "tv":
		return domain.KindSeries, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want all, movie or series)", s)
	}
}

// ParseSortKey parses a sort key name
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recency", "recent", "added":
		return SortRecency, nil
	case "alphabetical", "alpha", "title", "a-z":
		return SortAlphabetical, nil
	case "rating":
		return SortRating, nil
	default:
		return SortRecency, fmt.Errorf("unknown sort %q (want recency, alphabetical or rating)", s)
	}
}

// ParseRatingFilter parses "all" or a personal rating
func ParseRatingFilter(s string) (domain.PersonalRating, error) {
	v := strings.TrimSpace(s)
	if v == "" || strings.EqualFold(v, "all") {
		return "", nil
	}
	r, ok := domain.ParsePersonalRating(v)
	if !ok {
		return "", fmt.Errorf("unknown rating %q", s)
	}
	return r, nil
}
