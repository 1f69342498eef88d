package tmdb

import (
	"strconv"
	"strings"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// MapCandidates converts search results to library candidates, dropping
// anything that is not a movie or series (people, collections).
func MapCandidates(results []Result) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		kind, ok := mapKind(r.MediaType)
		if !ok {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.Name
		}
		date := r.ReleaseDate
		if date == "" {
			date = r.FirstAirDate
		}
		out = append(out, domain.Candidate{
			ExternalID:     r.ID,
			Title:          title,
			Kind:           kind,
			Year:           parseYear(date),
			Synopsis:       r.Overview,
			PosterRef:      r.PosterPath,
			BackdropRef:    r.BackdropPath,
			ExternalRating: r.VoteAverage,
		})
	}
	return out
}

func mapKind(mediaType string) (domain.Kind, bool) {
	switch mediaType {
	case "movie":
		return domain.KindMovie, true
	case "tv":
		return domain.KindSeries, true
	default:
		return "", false
	}
}

// parseYear extracts the year from a YYYY-MM-DD date
func parseYear(date string) int {
	y, _, _ := strings.Cut(date, "-")
	n, err := strconv.Atoi(y)
	if err != nil {
		return 0
	}
	return n
}

// Runtime returns the runtime in minutes. Series use the first listed
// episode runtime.
func (d *TVDetails) Runtime() int {
	if d == nil || len(d.EpisodeRunTime) == 0 {
		return 0
	}
	return d.EpisodeRunTime[0]
}
