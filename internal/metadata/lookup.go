// Package metadata adapts the TMDB client to the never-fail lookup contract
// the library relies on.
package metadata

import (
	"context"
	"log/slog"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/metadata/tmdb"
	"github.com/mmcdole/cinetrack/internal/search"
)

// DefaultMaxResults bounds Search when no limit is configured
const DefaultMaxResults = 20

// Catalog is the subset of the TMDB client used by Lookup
type Catalog interface {
	SearchMulti(ctx context.Context, query string) (*tmdb.Response, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
	GetTVDetails(ctx context.Context, showID int64) (*tmdb.TVDetails, error)
}

// Lookup implements domain.MetadataLookup. Every failure is logged and
// converted to an empty result.
type Lookup struct {
	catalog    Catalog
	maxResults int
	logger     *slog.Logger
}

var _ domain.MetadataLookup = (*Lookup)(nil)

// NewLookup creates a lookup over catalog. A nil catalog yields a lookup
// that always returns empty results (no API key configured).
func NewLookup(catalog Catalog, maxResults int, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Lookup{
		catalog:    catalog,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Search returns up to maxResults movie and series candidates, best match first
func (l *Lookup) Search(ctx context.Context, query string) []domain.Candidate {
	if query == "" || l.catalog == nil {
		return []domain.Candidate{}
	}

	resp, err := l.catalog.SearchMulti(ctx, query)
	if err != nil {
		l.logger.Warn("metadata search failed", "query", query, "error", err)
		return []domain.Candidate{}
	}

	ranked := search.Rank(query, tmdb.MapCandidates(resp.Results))
	if len(ranked) > l.maxResults {
		ranked = ranked[:l.maxResults]
	}
	return ranked
}

// FetchDetails resolves the runtime of a title; zero on any failure
func (l *Lookup) FetchDetails(ctx context.Context, externalID int64, kind domain.Kind) domain.Details {
	if externalID <= 0 || l.catalog == nil {
		return domain.Details{}
	}

	switch kind {
	case domain.KindMovie:
		d, err := l.catalog.GetMovieDetails(ctx, externalID)
		if err != nil {
			l.logger.Warn("metadata details failed", "externalId", externalID, "kind", kind, "error", err)
			return domain.Details{}
		}
		return domain.Details{RuntimeMinutes: max(d.Runtime, 0)}
	case domain.KindSeries:
		d, err := l.catalog.GetTVDetails(ctx, externalID)
		if err != nil {
			l.logger.Warn("metadata details failed", "externalId", externalID, "kind", kind, "error", err)
			return domain.Details{}
		}
		return domain.Details{RuntimeMinutes: max(d.Runtime(), 0)}
	default:
		return domain.Details{}
	}
}
