// Package view derives the rendered library view model from the raw entry set
// and the active filter. Everything here is pure: no I/O, no shared state,
// and the input slice is never mutated.
package view

import (
	"strings"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Section headers shown above the movie buckets
const (
	TheatricalTitle = "Theatrical Releases"
	StreamingTitle  = "Streaming Originals"
)

// Sections is the movie split by release source
type Sections struct {
	Theatrical []domain.Entry
	Streaming  []domain.Entry
}

// View is the filtered, sorted and optionally sectioned projection
type View struct {
	// Total is the number of entries that passed the filter, before sectioning
	Total int

	// Items holds the flat list; nil when Sections is set
	Items []domain.Entry

	// Sections is set when viewing movies sorted by recency
	Sections *Sections
}

// IsSectioned reports whether the view is split into buckets
func (v View) IsSectioned() bool {
	return v.Sections != nil
}

// All flattens the view in display order (theatrical before streaming)
func (v View) All() []domain.Entry {
	if v.Sections == nil {
		return v.Items
	}
	out := make([]domain.Entry, 0, v.Total)
	out = append(out, v.Sections.Theatrical...)
	out = append(out, v.Sections.Streaming...)
	return out
}

// Build projects entries through f. It never fails.
func Build(entries []domain.Entry, f Filter) View {
	needle := strings.ToLower(f.Search)

	filtered := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if f.match(e, needle) {
			filtered = append(filtered, e)
		}
	}

	sortEntries(filtered, f.Sort)

	v := View{Total: len(filtered)}
	if !f.Sectioned() {
		v.Items = filtered
		return v
	}

	s := &Sections{
		Theatrical: []domain.Entry{},
		Streaming:  []domain.Entry{},
	}
	for _, e := range filtered {
		if e.EffectiveReleaseSource() == domain.ReleaseVOD {
			s.Streaming = append(s.Streaming, e)
		} else {
			s.Theatrical = append(s.Theatrical, e)
		}
	}
	v.Sections = s
	return v
}
