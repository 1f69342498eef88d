package metadata

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/metadata/tmdb"
)

type fakeCatalog struct {
	results []tmdb.Result
	movie   *tmdb.MovieDetails
	tv      *tmdb.TVDetails
	err     error
}

func (f *fakeCatalog) SearchMulti(ctx context.Context, query string) (*tmdb.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.Response{Results: f.results}, nil
}

func (f *fakeCatalog) GetMovieDetails(ctx context.Context, id int64) (*tmdb.MovieDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.movie, nil
}

func (f *fakeCatalog) GetTVDetails(ctx context.Context, id int64) (*tmdb.TVDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tv, nil
}

func TestSearchRanksAndBounds(t *testing.T) {
	var results []tmdb.Result
	for i := 0; i < 30; i++ {
		results = append(results, tmdb.Result{ID: int64(i + 10), Title: fmt.Sprintf("Other %d", i), MediaType: "movie"})
	}
	results = append(results, tmdb.Result{ID: 1, Title: "Heat", MediaType: "movie"})
	results = append(results, tmdb.Result{ID: 2, Name: "Heat Person", MediaType: "person"})

	l := NewLookup(&fakeCatalog{results: results}, 5, nil)
	got := l.Search(context.Background(), "Heat")

	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].ExternalID != 1 {
		t.Errorf("best match = %+v, want Heat", got[0])
	}
	for _, c := range got {
		if c.Kind != domain.KindMovie && c.Kind != domain.KindSeries {
			t.Errorf("non-title candidate %+v", c)
		}
	}
}

func TestSearchFailureIsEmpty(t *testing.T) {
	l := NewLookup(&fakeCatalog{err: errors.New("boom")}, 0, nil)
	got := l.Search(context.Background(), "heat")
	if got == nil || len(got) != 0 {
		t.Errorf("Search on failure = %#v, want empty slice", got)
	}

	unconfigured := NewLookup(nil, 0, nil)
	if got := unconfigured.Search(context.Background(), "heat"); len(got) != 0 {
		t.Errorf("unconfigured Search = %+v", got)
	}
}

func TestFetchDetails(t *testing.T) {
	cat := &fakeCatalog{
		movie: &tmdb.MovieDetails{Runtime: 170},
		tv:    &tmdb.TVDetails{EpisodeRunTime: []int{45}},
	}
	l := NewLookup(cat, 0, nil)
	ctx := context.Background()

	if d := l.FetchDetails(ctx, 1, domain.KindMovie); d.RuntimeMinutes != 170 {
		t.Errorf("movie runtime = %d", d.RuntimeMinutes)
	}
	if d := l.FetchDetails(ctx, 1, domain.KindSeries); d.RuntimeMinutes != 45 {
		t.Errorf("series runtime = %d", d.RuntimeMinutes)
	}
	if d := l.FetchDetails(ctx, 0, domain.KindMovie); d.RuntimeMinutes != 0 {
		t.Errorf("unknown id runtime = %d", d.RuntimeMinutes)
	}

	cat.tv = &tmdb.TVDetails{}
	if d := l.FetchDetails(ctx, 1, domain.KindSeries); d.RuntimeMinutes != 0 {
		t.Errorf("empty episode_run_time runtime = %d", d.RuntimeMinutes)
	}
}

func TestFetchDetailsFailureIsZero(t *testing.T) {
	l := NewLookup(&fakeCatalog{err: &tmdb.StatusError{Code: 500}}, 0, nil)
	if d := l.FetchDetails(context.Background(), 1, domain.KindMovie); d != (domain.Details{}) {
		t.Errorf("details on failure = %+v", d)
	}
}
