package tui

import (
	"github.com/mmcdole/cinetrack/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SnapshotMsg carries the latest entry set from the store
type SnapshotMsg struct {
	Entries []domain.Entry
	Err     error // set when the subscription ended
}

// SearchResultsMsg signals that catalog search results are ready
type SearchResultsMsg struct {
	Query   string
	Results []domain.Candidate
}

// EntrySavedMsg signals that a write succeeded
type EntrySavedMsg struct {
	Entry domain.Entry
	Verb  string // "Added", "Updated", ...
}

// EntryDeletedMsg signals that an entry was removed
type EntryDeletedMsg struct {
	Title string
}

// ClearStatusMsg clears the footer status message
type ClearStatusMsg struct {
	seq int
}

// LogoutCompleteMsg signals that the session was signed out
type LogoutCompleteMsg struct {
	Error error
}
