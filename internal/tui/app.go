// Package tui is the Bubble Tea presentation layer: status tabs, kind and
// sort toggles, live search, the library list with its inspector, and the
// add and edit modals. It re-renders from the store on every notification.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/tui/components"
	"github.com/mmcdole/cinetrack/internal/tui/styles"
	"github.com/mmcdole/cinetrack/internal/view"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateHelp
	StateConfirmDelete
	StateConfirmLogout
)

// Status message lifetimes
const (
	statusDuration = 3 * time.Second
	errorDuration  = 6 * time.Second
)

// statusTabs are the status filters in tab order; "" means all
var statusTabs = []domain.Status{"", domain.StatusWatchlist, domain.StatusInProgress, domain.StatusWatched}

// Options wires the model to the rest of the application
type Options struct {
	Service  LibraryService
	Observer *LibraryObserver

	// SessionLabel is shown in the header (e.g. "Cloud · alice")
	SessionLabel string

	// SignOut ends the session; nil disables the logout key
	SignOut func(context.Context) error
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State   ApplicationState
	Ready   bool
	Loading bool

	// Services
	Service      LibraryService
	Observer     *LibraryObserver
	SessionLabel string
	signOut      func(context.Context) error

	// UI Components
	List      *components.LibraryList
	Inspector components.Inspector
	AddModal  components.AddModal
	EditModal components.EditModal
	Search    textinput.Model

	// Data
	Entries []domain.Entry
	Filter  view.Filter
	View    view.View

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg     string
	StatusIsErr   bool
	statusSeq     int
	ShowInspector bool
	pendingDelete *domain.Entry
	subFailed     bool

	// LoggedOut is set when the session was signed out from the UI
	LoggedOut bool
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search titles..."
	ti.CharLimit = 100
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle
	ti.PlaceholderStyle = styles.DimStyle

	m := Model{
		State:         StateBrowsing,
		Loading:       true,
		Service:       opts.Service,
		Observer:      opts.Observer,
		SessionLabel:  opts.SessionLabel,
		signOut:       opts.SignOut,
		List:          components.NewLibraryList(),
		Inspector:     components.NewInspector(),
		AddModal:      components.NewAddModal(),
		EditModal:     components.NewEditModal(),
		Search:        ti,
		ShowInspector: true,
	}
	m.refreshView()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return WaitForSnapshotCmd(m.Observer)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case SnapshotMsg:
		m.Loading = false
		m.Entries = msg.Entries
		m.refreshView()
		cmds := []tea.Cmd{WaitForSnapshotCmd(m.Observer)}
		if msg.Err != nil && !m.subFailed {
			// Shown once; later snapshots carry the same error
			m.subFailed = true
			cmds = append(cmds, m.setStatus("Sync stopped: "+msg.Err.Error(), true))
		}
		return m, tea.Batch(cmds...)

	case SearchResultsMsg:
		if m.AddModal.IsVisible() {
			m.AddModal.SetResults(msg.Query, msg.Results)
		}
		return m, nil

	case EntrySavedMsg:
		// New entries open in the editor
		if msg.Verb == verbAdded && !m.AddModal.IsVisible() {
			m.EditModal.Show(msg.Entry)
		}
		cmd := m.setStatus(fmt.Sprintf("%s %s", msg.Verb, msg.Entry.Title), false)
		return m, cmd

	case EntryDeletedMsg:
		cmd := m.setStatus("Deleted "+msg.Title, false)
		return m, cmd

	case ErrMsg:
		m.AddModal.SetLoading(false)
		cmd := m.setStatus(msg.Error(), true)
		return m, cmd

	case ClearStatusMsg:
		if msg.seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil

	case LogoutCompleteMsg:
		if msg.Error != nil {
			m.State = StateBrowsing
			cmd := m.setStatus("Logout failed: "+msg.Error.Error(), true)
			return m, cmd
		}
		m.LoggedOut = true
		return m, tea.Quit
	}

	// Cursor blink and other component messages
	var cmds []tea.Cmd
	if m.AddModal.IsVisible() {
		var cmd tea.Cmd
		m.AddModal, cmd, _ = m.AddModal.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.State == StateFiltering {
		var cmd tea.Cmd
		m.Search, cmd = m.Search.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// setStatus shows a one-shot footer message and schedules its removal
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	d := statusDuration
	if isErr {
		d = errorDuration
	}
	return ClearStatusCmd(m.statusSeq, d)
}

// refreshView rebuilds the view model from the current entries and filter
func (m *Model) refreshView() {
	m.View = view.Build(m.Entries, m.Filter)
	m.List.SetView(m.View)
	m.List.SetTitle(m.listTitle())
	m.List.SetEmptyState(m.emptyState())
}

// listTitle names the current tab and kind
func (m Model) listTitle() string {
	title := statusLabel(m.Filter.Status)
	switch m.Filter.Kind {
	case domain.KindMovie:
		title += " · Movies"
	case domain.KindSeries:
		title += " · Series"
	}
	return title
}

// emptyState returns the lines shown when nothing matches
func (m Model) emptyState() []string {
	if m.Loading {
		return []string{"Loading library..."}
	}
	if len(m.Entries) == 0 {
		return []string{"Your library is empty.", "Press a to add a movie or series."}
	}
	if m.Filter.Search != "" {
		lines := []string{fmt.Sprintf("No titles match %q.", m.Filter.Search)}
		if suggestions := view.Suggest(m.Entries, m.Filter.Search, 3); len(suggestions) > 0 {
			lines = append(lines, "", "Did you mean:")
			for _, s := range suggestions {
				lines = append(lines, "  "+s)
			}
		}
		return lines
	}
	return []string{"Nothing here with these filters."}
}

// selected returns the entry under the list cursor
func (m Model) selected() (domain.Entry, bool) {
	return m.List.Selected()
}

// statusLabel is the tab label for a status filter
func statusLabel(s domain.Status) string {
	if s == "" {
		return "All"
	}
	return s.String()
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmDelete:
		return m.renderDeleteConfirmation()
	case StateConfirmLogout:
		return m.renderLogoutConfirmation()
	}

	layout := m.calculateLayout()

	var content string
	if layout.inspectorWidth > 0 {
		inspector := m.Inspector
		if e, ok := m.selected(); ok {
			inspector.SetEntry(&e)
		} else {
			inspector.SetEntry(nil)
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.List.View(), inspector.View())
	} else {
		content = m.List.View()
	}

	screen := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTabs(),
		m.renderFilterBar(),
		content,
		m.renderFooter(),
	)

	if m.AddModal.IsVisible() {
		screen = m.AddModal.View()
	}
	if m.EditModal.IsVisible() {
		screen = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.EditModal.View())
	}
	return screen
}

// Run starts the TUI and blocks until it exits. It reports whether the user
// logged out.
func Run(m Model) (loggedOut bool, err error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("TUI error: %w", err)
	}
	if fm, ok := final.(Model); ok {
		return fm.LoggedOut, nil
	}
	return false, nil
}
