package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/metadata/tmdb"
)

func TestNewRequiresCredential(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := tmdb.New("", "https://example.com", "en-US", tmdb.WithAccessToken("tok")); err != nil {
		t.Fatalf("access token alone should be accepted: %v", err)
	}
}

func TestSearchMultiSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/multi" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key" {
			t.Errorf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("include_adult") != "false" {
			t.Errorf("include_adult not disabled")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[
			{"id":1,"title":"Heat","media_type":"movie","release_date":"1995-12-15","vote_average":7.9,"poster_path":"/p.jpg"},
			{"id":2,"name":"The Wire","media_type":"tv","first_air_date":"2002-06-02"},
			{"id":3,"name":"Al Pacino","media_type":"person"}
		]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMulti(context.Background(), "heat")
	if err != nil {
		t.Fatalf("SearchMulti returned error: %v", err)
	}
	cands := tmdb.MapCandidates(resp.Results)
	if len(cands) != 2 {
		t.Fatalf("candidates = %+v", cands)
	}
	if cands[0].Title != "Heat" || cands[0].Kind != domain.KindMovie || cands[0].Year != 1995 || cands[0].PosterRef != "/p.jpg" {
		t.Errorf("movie candidate = %+v", cands[0])
	}
	if cands[1].Title != "The Wire" || cands[1].Kind != domain.KindSeries || cands[1].Year != 2002 {
		t.Errorf("series candidate = %+v", cands[1])
	}
}

func TestBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Query().Has("api_key") {
			t.Errorf("api_key sent alongside bearer token")
		}
		_, _ = w.Write([]byte(`{"id":10,"runtime":170}`))
	}))
	t.Cleanup(server.Close)

	client, _ := tmdb.New("", server.URL, "", tmdb.WithAccessToken("tok"))
	details, err := client.GetMovieDetails(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetMovieDetails: %v", err)
	}
	if details.Runtime != 170 {
		t.Errorf("runtime = %d", details.Runtime)
	}
}

func TestTVDetailsRuntime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":7,"episode_run_time":[58,60]}`))
	}))
	t.Cleanup(server.Close)

	client, _ := tmdb.New("key", server.URL, "")
	details, err := client.GetTVDetails(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetTVDetails: %v", err)
	}
	if details.Runtime() != 58 {
		t.Errorf("runtime = %d", details.Runtime())
	}

	var empty *tmdb.TVDetails
	if empty.Runtime() != 0 {
		t.Error("nil details should have zero runtime")
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"runtime":90}`))
	}))
	t.Cleanup(server.Close)

	client, _ := tmdb.New("key", server.URL, "", tmdb.WithRetryDelay(time.Millisecond))
	details, err := client.GetMovieDetails(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetMovieDetails: %v", err)
	}
	if details.Runtime != 90 || calls.Load() != 3 {
		t.Errorf("runtime = %d after %d calls", details.Runtime, calls.Load())
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	}))
	t.Cleanup(server.Close)

	client, _ := tmdb.New("key", server.URL, "", tmdb.WithRetryDelay(time.Millisecond))
	_, err := client.GetMovieDetails(context.Background(), 404)
	var se *tmdb.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, _ := tmdb.New("key", server.URL, "",
		tmdb.WithRetryDelay(time.Microsecond),
		tmdb.WithRateLimit(10000, 100),
	)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := client.GetMovieDetails(ctx, 1); err == nil {
			t.Fatal("expected error")
		}
	}

	before := calls.Load()
	if _, err := client.GetMovieDetails(ctx, 1); !errors.Is(err, tmdb.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != before {
		t.Error("request sent while circuit open")
	}
}

func TestSearchMultiEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMulti(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}
