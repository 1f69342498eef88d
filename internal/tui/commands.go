package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// writeTimeout bounds a single store write issued from the UI
const writeTimeout = 30 * time.Second

// LibraryService is the set of library operations the UI drives
type LibraryService interface {
	Search(ctx context.Context, query string) []domain.Candidate
	Add(ctx context.Context, c domain.Candidate) (domain.Entry, error)
	Update(ctx context.Context, e domain.Entry) (domain.Entry, error)
	MarkWatched(ctx context.Context, id string) (domain.Entry, error)
	AdvanceEpisode(ctx context.Context, id string) (domain.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Command factories for async operations

// WaitForSnapshotCmd waits for the next store notification
func WaitForSnapshotCmd(o *LibraryObserver) tea.Cmd {
	if o == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := o.Next()
		if !ok {
			return nil
		}
		return msg
	}
}

// SearchCatalogCmd runs a metadata search for the add modal
func SearchCatalogCmd(svc LibraryService, query string) tea.Cmd {
	return func() tea.Msg {
		return SearchResultsMsg{Query: query, Results: svc.Search(context.Background(), query)}
	}
}

const verbAdded = "Added"

// AddEntryCmd adds a picked candidate. The detail lookup inside Add has no
// deadline of its own beyond the HTTP client's.
func AddEntryCmd(svc LibraryService, c domain.Candidate) tea.Cmd {
	return func() tea.Msg {
		e, err := svc.Add(context.Background(), c)
		if err != nil {
			return ErrMsg{Err: err, Context: "adding " + c.Title}
		}
		return EntrySavedMsg{Entry: e, Verb: verbAdded}
	}
}

// UpdateEntryCmd saves an edited entry
func UpdateEntryCmd(svc LibraryService, e domain.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		saved, err := svc.Update(ctx, e)
		if err != nil {
			return ErrMsg{Err: err, Context: "saving " + e.Title}
		}
		return EntrySavedMsg{Entry: saved, Verb: "Updated"}
	}
}

// MarkWatchedCmd moves an entry to watched
func MarkWatchedCmd(svc LibraryService, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		e, err := svc.MarkWatched(ctx, id)
		if err != nil {
			return ErrMsg{Err: err, Context: "marking watched"}
		}
		return EntrySavedMsg{Entry: e, Verb: "Watched"}
	}
}

// AdvanceEpisodeCmd moves a series to its next episode
func AdvanceEpisodeCmd(svc LibraryService, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		e, err := svc.AdvanceEpisode(ctx, id)
		if err != nil {
			return ErrMsg{Err: err, Context: "advancing episode"}
		}
		return EntrySavedMsg{Entry: e, Verb: "Now at " + e.EpisodeCode() + ":"}
	}
}

// DeleteEntryCmd removes an entry
func DeleteEntryCmd(svc LibraryService, e domain.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := svc.Delete(ctx, e.ID); err != nil {
			return ErrMsg{Err: err, Context: "deleting " + e.Title}
		}
		return EntryDeletedMsg{Title: e.Title}
	}
}

// ClearStatusCmd returns a command that clears status after a delay. Only
// the status set with the same sequence number is cleared.
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{seq: seq}
	})
}

// LogoutCmd signs the session out, then signals completion
func LogoutCmd(signOut func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if signOut == nil {
			return LogoutCompleteMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return LogoutCompleteMsg{Error: signOut(ctx)}
	}
}
