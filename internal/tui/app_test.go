package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/view"
)

type fakeService struct {
	mu       sync.Mutex
	updated  []domain.Entry
	deleted  []string
	watched  []string
	advanced []string
	added    []domain.Candidate
	results  []domain.Candidate
	err      error
}

func (f *fakeService) Search(ctx context.Context, query string) []domain.Candidate {
	return f.results
}

func (f *fakeService) Add(ctx context.Context, c domain.Candidate) (domain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, c)
	return domain.Entry{ID: "new", Title: c.Title, Kind: c.Kind, Status: domain.StatusWatchlist}, f.err
}

func (f *fakeService) Update(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, e)
	return e, f.err
}

func (f *fakeService) MarkWatched(ctx context.Context, id string) (domain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, id)
	return domain.Entry{ID: id, Title: "Heat"}, f.err
}

func (f *fakeService) AdvanceEpisode(ctx context.Context, id string) (domain.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanced = append(f.advanced, id)
	return domain.Entry{ID: id, Title: "Severance", Kind: domain.KindSeries, Progress: domain.Progress{Season: 1, Episode: 3}}, f.err
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

func sampleEntries() []domain.Entry {
	return []domain.Entry{
		{ID: "m1", Title: "Heat", Kind: domain.KindMovie, Status: domain.StatusWatched, Year: 1995,
			PersonalRating: domain.RatingExcellent, ReleaseSource: domain.ReleaseTheater, AddedAt: 300},
		{ID: "m2", Title: "Roma", Kind: domain.KindMovie, Status: domain.StatusWatchlist,
			ReleaseSource: domain.ReleaseVOD, VodProvider: domain.ProviderNetflix, AddedAt: 200},
		{ID: "s1", Title: "Severance", Kind: domain.KindSeries, Status: domain.StatusInProgress,
			Progress: domain.Progress{Season: 1, Episode: 2}, AddedAt: 100},
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = send(t, m, keyMsg(k))
	}
	return m, cmd
}

func newTestModel(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := NewModel(Options{Service: svc, SessionLabel: "Guest", SignOut: func(context.Context) error { return nil }})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = send(t, m, SnapshotMsg{Entries: sampleEntries()})
	return m
}

func TestSnapshotBuildsView(t *testing.T) {
	m := newTestModel(t, &fakeService{})

	if m.Loading {
		t.Error("still loading after snapshot")
	}
	if m.View.Total != 3 || m.List.Len() != 3 {
		t.Fatalf("total = %d, list = %d, want 3", m.View.Total, m.List.Len())
	}
	// Default sort is recency, so the newest entry is selected first
	if e, _ := m.List.Selected(); e.ID != "m1" {
		t.Errorf("selected = %q, want m1", e.ID)
	}
	if out := m.View(); !strings.Contains(out, "Showing 3 items") {
		t.Error("view missing item count")
	}
}

func TestStatusTabs(t *testing.T) {
	m := newTestModel(t, &fakeService{})

	m, _ = press(t, m, "4")
	if m.Filter.Status != domain.StatusWatched || m.View.Total != 1 {
		t.Fatalf("watched tab: status %q total %d", m.Filter.Status, m.View.Total)
	}

	// Tab wraps from the last tab back to All
	m, _ = press(t, m, "tab")
	if m.Filter.Status != "" || m.View.Total != 3 {
		t.Errorf("after wrap: status %q total %d", m.Filter.Status, m.View.Total)
	}

	m, _ = press(t, m, "tab", "tab")
	if m.Filter.Status != domain.StatusInProgress {
		t.Errorf("status = %q, want in-progress", m.Filter.Status)
	}
}

func TestKindToggleSectionsMovies(t *testing.T) {
	m := newTestModel(t, &fakeService{})

	m, _ = press(t, m, "t")
	if m.Filter.Kind != domain.KindMovie {
		t.Fatalf("kind = %q", m.Filter.Kind)
	}
	if !m.View.IsSectioned() {
		t.Fatal("movies by recency should be sectioned")
	}
	if len(m.View.Sections.Theatrical) != 1 || len(m.View.Sections.Streaming) != 1 {
		t.Errorf("sections = %d/%d", len(m.View.Sections.Theatrical), len(m.View.Sections.Streaming))
	}
	if out := m.View(); !strings.Contains(out, view.TheatricalTitle) || !strings.Contains(out, view.StreamingTitle) {
		t.Error("section headers not rendered")
	}

	m, _ = press(t, m, "s")
	if m.View.IsSectioned() {
		t.Error("alphabetical sort should flatten sections")
	}

	m, _ = press(t, m, "t", "t")
	if m.Filter.Kind != "" {
		t.Errorf("kind toggle did not cycle back to all: %q", m.Filter.Kind)
	}
}

func TestLiveSearch(t *testing.T) {
	m := newTestModel(t, &fakeService{})

	m, _ = press(t, m, "/")
	if m.State != StateFiltering {
		t.Fatalf("state = %v", m.State)
	}
	m, _ = press(t, m, "s", "e", "v")
	if m.Filter.Search != "sev" || m.View.Total != 1 {
		t.Fatalf("search %q total %d", m.Filter.Search, m.View.Total)
	}

	// Enter keeps the search, Esc in browse mode clears it
	m, _ = press(t, m, "enter")
	if m.State != StateBrowsing || m.Filter.Search != "sev" {
		t.Fatalf("enter: state %v search %q", m.State, m.Filter.Search)
	}
	m, _ = press(t, m, "esc")
	if m.Filter.Search != "" || m.View.Total != 3 {
		t.Errorf("esc: search %q total %d", m.Filter.Search, m.View.Total)
	}
}

func TestEmptyStateSuggestions(t *testing.T) {
	m := newTestModel(t, &fakeService{})

	m, _ = press(t, m, "/", "h", "e", "t")
	if m.View.Total != 0 {
		t.Fatalf("total = %d", m.View.Total)
	}
	out := m.View()
	if !strings.Contains(out, "Did you mean") || !strings.Contains(out, "Heat") {
		t.Errorf("empty state missing suggestion:\n%s", out)
	}
}

func TestEmptyLibrary(t *testing.T) {
	m := NewModel(Options{Service: &fakeService{}})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "Loading library") {
		t.Error("expected loading state before first snapshot")
	}
	m, _ = send(t, m, SnapshotMsg{})
	if !strings.Contains(m.View(), "Your library is empty") {
		t.Error("expected empty library state")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(t, svc)

	m, cmd := press(t, m, "x")
	if m.State != StateConfirmDelete || cmd != nil {
		t.Fatalf("state = %v", m.State)
	}
	m, _ = press(t, m, "n")
	if m.State != StateBrowsing || len(svc.deleted) != 0 {
		t.Fatal("deny should cancel")
	}

	m, _ = press(t, m, "x")
	m, cmd = press(t, m, "y")
	if cmd == nil {
		t.Fatal("confirm returned no command")
	}
	msg := cmd()
	if _, ok := msg.(EntryDeletedMsg); !ok {
		t.Fatalf("msg = %T", msg)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "m1" {
		t.Errorf("deleted = %v", svc.deleted)
	}

	m, _ = send(t, m, msg)
	if m.StatusMsg != "Deleted Heat" {
		t.Errorf("status = %q", m.StatusMsg)
	}
}

func TestQuickActions(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(t, svc)

	// m1 is already watched
	m, _ = press(t, m, "w")
	if len(svc.watched) != 0 || !strings.Contains(m.StatusMsg, "already watched") {
		t.Errorf("watched on watched entry: %v %q", svc.watched, m.StatusMsg)
	}

	m, _ = press(t, m, "n")
	if !strings.Contains(m.StatusMsg, "only applies to series") {
		t.Errorf("next episode on movie: %q", m.StatusMsg)
	}

	// Move to the series (third by recency)
	m, _ = press(t, m, "down", "down")
	_, cmd := press(t, m, "n")
	if cmd == nil {
		t.Fatal("no command for next episode")
	}
	if saved, ok := cmd().(EntrySavedMsg); !ok || saved.Entry.EpisodeCode() != "S01E03" {
		t.Errorf("advance result = %#v", saved)
	}
	if len(svc.advanced) != 1 || svc.advanced[0] != "s1" {
		t.Errorf("advanced = %v", svc.advanced)
	}
}

func TestEditModalSavesThroughUpdate(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(t, svc)

	m, _ = press(t, m, "e")
	if !m.EditModal.IsVisible() {
		t.Fatal("edit modal not shown")
	}
	// Status: watched -> watchlist (wraps)
	m, _ = press(t, m, "right")
	m, cmd := press(t, m, "enter")
	if m.EditModal.IsVisible() || cmd == nil {
		t.Fatal("enter should close the modal and save")
	}
	cmd()
	if len(svc.updated) != 1 || svc.updated[0].Status != domain.StatusWatchlist {
		t.Errorf("updated = %+v", svc.updated)
	}
}

func TestAddFlow(t *testing.T) {
	svc := &fakeService{results: []domain.Candidate{
		{ExternalID: 1, Title: "Alien", Kind: domain.KindMovie, Year: 1979},
		{ExternalID: 2, Title: "Aliens", Kind: domain.KindMovie, Year: 1986},
	}}
	m := newTestModel(t, svc)

	m, _ = press(t, m, "a")
	if !m.AddModal.IsVisible() {
		t.Fatal("add modal not shown")
	}
	m, _ = press(t, m, "a", "l", "i", "e", "n")
	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("enter did not start a search")
	}
	m, _ = send(t, m, cmd())

	m, _ = press(t, m, "down")
	m, cmd = press(t, m, "enter")
	if m.AddModal.IsVisible() || cmd == nil {
		t.Fatal("pick should close the modal and add")
	}
	m, _ = send(t, m, cmd())
	if len(svc.added) != 1 || svc.added[0].Title != "Aliens" {
		t.Errorf("added = %+v", svc.added)
	}
	if m.StatusMsg != "Added Aliens" {
		t.Errorf("status = %q", m.StatusMsg)
	}
	if !m.EditModal.IsVisible() || m.EditModal.Entry().ID != "new" {
		t.Errorf("edit modal not opened on the added entry (visible %v)", m.EditModal.IsVisible())
	}

	// Editing the new entry saves it like any other
	m, cmd = press(t, m, "enter")
	if m.EditModal.IsVisible() || cmd == nil {
		t.Fatal("enter should close the modal and save")
	}
	cmd()
	if len(svc.updated) != 1 || svc.updated[0].ID != "new" {
		t.Errorf("updated = %+v", svc.updated)
	}
}

func TestErrorShownOnce(t *testing.T) {
	m := newTestModel(t, &fakeService{})

	m, cmd := send(t, m, ErrMsg{Err: domain.ErrStoreClosed, Context: "saving Heat"})
	if !m.StatusIsErr || !strings.Contains(m.StatusMsg, "saving Heat") {
		t.Fatalf("status = %q", m.StatusMsg)
	}
	if cmd == nil {
		t.Fatal("error status not scheduled for clearing")
	}

	// A stale clear from an earlier status is ignored
	m, _ = send(t, m, ClearStatusMsg{seq: m.statusSeq - 1})
	if m.StatusMsg == "" {
		t.Error("stale clear removed the current status")
	}
	m, _ = send(t, m, ClearStatusMsg{seq: m.statusSeq})
	if m.StatusMsg != "" {
		t.Error("status not cleared")
	}
}

func TestSubscriptionFailureReportedOnce(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	failure := errors.New("connection lost")

	m, _ = send(t, m, SnapshotMsg{Entries: sampleEntries(), Err: failure})
	if !strings.Contains(m.StatusMsg, "connection lost") {
		t.Fatalf("status = %q", m.StatusMsg)
	}
	m, _ = send(t, m, ClearStatusMsg{seq: m.statusSeq})
	m, _ = send(t, m, SnapshotMsg{Entries: sampleEntries(), Err: failure})
	if m.StatusMsg != "" {
		t.Errorf("failure reported twice: %q", m.StatusMsg)
	}
}

func TestLogout(t *testing.T) {
	m := newTestModel(t, &fakeService{})

	m, _ = press(t, m, "L")
	if m.State != StateConfirmLogout {
		t.Fatalf("state = %v", m.State)
	}
	_, cmd := press(t, m, "y")
	msg := cmd()
	m, cmd = send(t, m, msg)
	if !m.LoggedOut || cmd == nil {
		t.Error("logout did not quit")
	}
}

func TestRatingFilterCycle(t *testing.T) {
	r := domain.PersonalRating("")
	seen := 0
	for {
		r = nextRatingFilter(r)
		if r == "" {
			break
		}
		seen++
		if seen > len(domain.PersonalRatings) {
			t.Fatal("rating cycle did not return to none")
		}
	}
	if seen != len(domain.PersonalRatings) {
		t.Errorf("cycled through %d ratings", seen)
	}
}
