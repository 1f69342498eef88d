package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/mmcdole/cinetrack/internal/adapter"
	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/store"
	"github.com/mmcdole/cinetrack/internal/view"
)

type cliTestEnv struct {
	configDir string
	dataDir   string
}

func setupCLITestEnv(t *testing.T, extraConfig string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		configDir: filepath.Join(base, "config"),
		dataDir:   filepath.Join(base, "data"),
	}
	if err := os.MkdirAll(env.configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	config := fmt.Sprintf("storage:\n  data_dir: %s\nlogging:\n  file: %s\n%s",
		env.dataDir, filepath.Join(base, "cinetrack.log"), extraConfig)
	if err := os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	origOut, origIn := stdoutIsTerminal, stdinIsTerminal
	stdoutIsTerminal = func() bool { return false }
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() {
		stdoutIsTerminal, stdinIsTerminal = origOut, origIn
	})
	return env
}

// seed writes entries into an on-device slot while no command holds the db
func (env *cliTestEnv) seed(t *testing.T, slot string, entries ...domain.Entry) {
	t.Helper()
	local, err := store.NewLocalStore(env.dataDir, adapter.NullLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	defer local.Close()
	for _, e := range entries {
		if err := local.Namespace(slot).Put(context.Background(), e); err != nil {
			t.Fatalf("seed %s: %v", e.ID, err)
		}
	}
}

func (env *cliTestEnv) load(t *testing.T, slot string) map[string]domain.Entry {
	t.Helper()
	local, err := store.NewLocalStore(env.dataDir, adapter.NullLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	defer local.Close()
	entries, err := local.Namespace(slot).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	byID := make(map[string]domain.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	return byID
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.configDir}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func sampleLibrary() []domain.Entry {
	return []domain.Entry{
		{ID: "m1-heat", Title: "Heat", Kind: domain.KindMovie, Status: domain.StatusWatched, Year: 1995,
			PersonalRating: domain.RatingExcellent, ReleaseSource: domain.ReleaseTheater, AddedAt: 300},
		{ID: "m2-roma", Title: "Roma", Kind: domain.KindMovie, Status: domain.StatusWatchlist, Year: 2018,
			ReleaseSource: domain.ReleaseVOD, VodProvider: domain.ProviderNetflix, AddedAt: 200},
		{ID: "s1-sev", Title: "Severance", Kind: domain.KindSeries, Status: domain.StatusInProgress,
			Progress: domain.Progress{Season: 1, Episode: 2}, AddedAt: 100},
	}
}

const guestSession = "session:\n  mode: guest\n"

func TestCLIListJSON(t *testing.T) {
	env := setupCLITestEnv(t, guestSession)
	env.seed(t, store.SlotGuest, sampleLibrary()...)

	out, _, err := env.run(t, "list", "--kind", "movie")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got listOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Total != 2 || got.Sections == nil {
		t.Fatalf("unexpected output: %+v", got)
	}
	if len(got.Sections.Theatrical) != 1 || got.Sections.Theatrical[0].Title != "Heat" {
		t.Errorf("theatrical = %+v", got.Sections.Theatrical)
	}
	if len(got.Sections.Streaming) != 1 || got.Sections.Streaming[0].Title != "Roma" {
		t.Errorf("streaming = %+v", got.Sections.Streaming)
	}

	out, _, err = env.run(t, "list", "--search", "SEV")
	if err != nil {
		t.Fatalf("list --search: %v", err)
	}
	got = listOutput{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 1 || got.Items == nil || len(*got.Items) != 1 || (*got.Items)[0].ID != "s1-sev" {
		t.Errorf("search output = %+v", got)
	}
}

func TestCLIListRejectsUnknownFilter(t *testing.T) {
	env := setupCLITestEnv(t, guestSession)
	if _, _, err := env.run(t, "list", "--status", "abandoned"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestRenderViewTable(t *testing.T) {
	entries := sampleLibrary()

	out := renderView(view.Build(entries, view.Filter{Kind: domain.KindMovie}), view.Filter{Kind: domain.KindMovie}, entries)
	for _, want := range []string{"Theatrical Releases (1)", "Streaming Originals (1)", "Heat", "VOD · Netflix", "Showing 2 items"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	f := view.Filter{Search: "xyz"}
	out = renderView(view.Build(entries, f), f, entries)
	if !strings.Contains(out, `No titles match "xyz".`) {
		t.Errorf("unexpected empty state: %q", out)
	}

	out = renderView(view.Build(nil, view.Filter{}), view.Filter{}, nil)
	if !strings.Contains(out, "Your library is empty") {
		t.Errorf("unexpected empty library output: %q", out)
	}
}

func TestCLIEditCommands(t *testing.T) {
	env := setupCLITestEnv(t, guestSession)
	env.seed(t, store.SlotGuest, sampleLibrary()...)

	if _, _, err := env.run(t, "set", "m2", "--status", "watched", "--rating", "good"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, _, err := env.run(t, "next", "s1"); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, _, err := env.run(t, "set", "s1", "--rating", "Good"); err == nil {
		t.Error("rating a series should fail")
	}
	if _, _, err := env.run(t, "set", "m1", "--status", "watchlist"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	got := env.load(t, store.SlotGuest)
	if e := got["m2-roma"]; e.Status != domain.StatusWatched || e.PersonalRating != domain.RatingGood {
		t.Errorf("roma = %s/%s", e.Status, e.PersonalRating)
	}
	if e := got["m2-roma"]; e.VodProvider != domain.ProviderNetflix {
		t.Errorf("provider lost: %q", e.VodProvider)
	}
	if e := got["s1-sev"]; e.EpisodeCode() != "S01E03" {
		t.Errorf("severance at %s, want S01E03", e.EpisodeCode())
	}
	if e := got["m1-heat"]; e.PersonalRating != "" {
		t.Errorf("leaving watched kept rating %q", e.PersonalRating)
	}
}

func TestCLIRemoveNeedsConfirmation(t *testing.T) {
	env := setupCLITestEnv(t, guestSession)
	env.seed(t, store.SlotGuest, sampleLibrary()...)

	if _, _, err := env.run(t, "rm", "m1"); err == nil {
		t.Fatal("rm without --yes should fail when not interactive")
	}
	if _, _, err := env.run(t, "rm", "nope", "--yes"); err == nil {
		t.Fatal("rm of unknown id should fail")
	}
	out, _, err := env.run(t, "rm", "m1", "--yes")
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	if !strings.Contains(out, "Deleted Heat") {
		t.Errorf("output = %q", out)
	}
	if _, ok := env.load(t, store.SlotGuest)["m1-heat"]; ok {
		t.Error("entry still present")
	}
}

func TestCLIAddFromCatalog(t *testing.T) {
	tmdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search/multi":
			_, _ = w.Write([]byte(`{"page":1,"results":[
				{"id":949,"title":"Heat","media_type":"movie","release_date":"1995-12-15","vote_average":7.9}
			]}`))
		case "/movie/949":
			_, _ = w.Write([]byte(`{"id":949,"title":"Heat","runtime":170}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(tmdb.Close)

	env := setupCLITestEnv(t, guestSession+fmt.Sprintf("tmdb:\n  api_key: test\n  base_url: %s\n", tmdb.URL))

	out, _, err := env.run(t, "add", "heat", "--pick", "1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added Heat (1995)") {
		t.Errorf("output = %q", out)
	}

	got := env.load(t, store.SlotGuest)
	if len(got) != 1 {
		t.Fatalf("library has %d entries", len(got))
	}
	for _, e := range got {
		if e.Status != domain.StatusWatchlist || e.RuntimeMinutes != 170 || e.ExternalID != 949 {
			t.Errorf("added entry = %+v", e)
		}
	}

	if _, _, err := env.run(t, "add", "heat", "--pick", "5"); err == nil {
		t.Error("out of range pick should fail")
	}
}

func TestCLIModeSwitchPersists(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.seed(t, store.SlotGuest, sampleLibrary()...)

	// First run without a saved session opens the guest library
	out, _, err := env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"total": 3`) {
		t.Errorf("guest list = %q", out)
	}

	if _, _, err := env.run(t, "owner"); err != nil {
		t.Fatalf("owner: %v", err)
	}
	cfg, err := adapter.LoadConfig(env.configDir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Session.Mode != "owner" {
		t.Errorf("saved mode = %q, want owner", cfg.Session.Mode)
	}

	// Namespaces are separate; the owner library starts empty
	out, _, err = env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"total": 0`) || !strings.Contains(out, `"items": []`) {
		t.Errorf("owner list = %q", out)
	}

	if _, _, err := env.run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	cfg, _ = adapter.LoadConfig(env.configDir)
	if cfg.Session.Mode != "" {
		t.Errorf("session not cleared: %+v", cfg.Session)
	}
}

func TestCLILoginWithoutServer(t *testing.T) {
	env := setupCLITestEnv(t, guestSession)
	if _, _, err := env.run(t, "login", "alice"); err == nil {
		t.Fatal("login without a server should fail")
	}
}

func TestVersionSkipsConfig(t *testing.T) {
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--config", "/nonexistent/dir", "version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout.String(), "cinetrack") {
		t.Errorf("output = %q", stdout.String())
	}
}
