package tui

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/tui/components"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmDelete:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			if e := m.pendingDelete; e != nil {
				m.pendingDelete = nil
				return m, DeleteEntryCmd(m.Service, *e)
			}
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
			m.pendingDelete = nil
		}
		return m, nil

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, Keys.Confirm):
			return m, LogoutCmd(m.signOut)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateFiltering:
		return m.handleFilterKey(msg)
	}

	// Route to active modal if any
	if handled, newModel, cmd := m.routeToModal(msg); handled {
		return newModel, cmd
	}

	// List navigation
	if m.List.HandleKey(msg) {
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.Filter.Search != "" {
			m.Search.SetValue("")
			m.Filter.Search = ""
			m.refreshView()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.State = StateFiltering
		cmd := m.Search.Focus()
		return m, cmd

	case key.Matches(msg, Keys.NextTab):
		m.setStatusTab(m.tabIndex() + 1)
		return m, nil

	case key.Matches(msg, Keys.PrevTab):
		m.setStatusTab(m.tabIndex() - 1)
		return m, nil

	case key.Matches(msg, Keys.TabAll):
		m.setStatusTab(0)
		return m, nil

	case key.Matches(msg, Keys.TabWatch):
		m.setStatusTab(1)
		return m, nil

	case key.Matches(msg, Keys.TabPending):
		m.setStatusTab(2)
		return m, nil

	case key.Matches(msg, Keys.TabDone):
		m.setStatusTab(3)
		return m, nil

	case key.Matches(msg, Keys.Kind):
		switch m.Filter.Kind {
		case "":
			m.Filter.Kind = domain.KindMovie
		case domain.KindMovie:
			m.Filter.Kind = domain.KindSeries
		default:
			m.Filter.Kind = ""
		}
		m.refreshView()
		return m, nil

	case key.Matches(msg, Keys.Sort):
		m.Filter.Sort = m.Filter.Sort.Next()
		m.refreshView()
		return m, nil

	case key.Matches(msg, Keys.Rating):
		m.Filter.Rating = nextRatingFilter(m.Filter.Rating)
		m.refreshView()
		if m.Filter.Rating != "" && !m.Filter.RatingApplies() {
			cmd := m.setStatus("Rating filter applies to watched movies", false)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, Keys.ToggleInspector):
		m.ShowInspector = !m.ShowInspector
		m.updateLayout()
		return m, nil

	case key.Matches(msg, Keys.Add):
		m.AddModal.Show()
		m.AddModal.SetSize(m.Width, m.Height)
		return m, textinput.Blink

	case key.Matches(msg, Keys.Edit):
		if e, ok := m.selected(); ok {
			m.EditModal.Show(e)
		}
		return m, nil

	case key.Matches(msg, Keys.MarkWatched):
		if e, ok := m.selected(); ok {
			if e.Status == domain.StatusWatched {
				cmd := m.setStatus(e.Title+" is already watched", false)
				return m, cmd
			}
			return m, MarkWatchedCmd(m.Service, e.ID)
		}
		return m, nil

	case key.Matches(msg, Keys.NextEpisode):
		if e, ok := m.selected(); ok {
			if !e.IsSeries() {
				cmd := m.setStatus("Next episode only applies to series", false)
				return m, cmd
			}
			return m, AdvanceEpisodeCmd(m.Service, e.ID)
		}
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if e, ok := m.selected(); ok {
			m.pendingDelete = &e
			m.State = StateConfirmDelete
		}
		return m, nil

	case key.Matches(msg, Keys.Logout):
		if m.signOut != nil {
			m.State = StateConfirmLogout
		}
		return m, nil
	}

	return m, nil
}

// handleFilterKey feeds the live search box; the view updates per keystroke
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Search.SetValue("")
		m.Search.Blur()
		m.Filter.Search = ""
		m.State = StateBrowsing
		m.refreshView()
		return m, nil
	case tea.KeyEnter:
		m.Search.Blur()
		m.State = StateBrowsing
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		m.List.HandleKey(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.Search, cmd = m.Search.Update(msg)
	if v := m.Search.Value(); v != m.Filter.Search {
		m.Filter.Search = v
		m.refreshView()
	}
	return m, cmd
}

// routeToModal sends keys to the visible modal, if any
func (m Model) routeToModal(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	if m.AddModal.IsVisible() {
		var cmd tea.Cmd
		var action components.AddAction
		m.AddModal, cmd, action = m.AddModal.Update(msg)
		switch action {
		case components.AddSearch:
			m.AddModal.SetLoading(true)
			return true, m, SearchCatalogCmd(m.Service, m.AddModal.Query())
		case components.AddPick:
			c, ok := m.AddModal.Selected()
			m.AddModal.Hide()
			if ok {
				return true, m, AddEntryCmd(m.Service, c)
			}
		}
		return true, m, cmd
	}

	if m.EditModal.IsVisible() {
		handled, saved := m.EditModal.HandleKey(msg)
		if saved != nil {
			return true, m, UpdateEntryCmd(m.Service, *saved)
		}
		return handled, m, nil
	}

	return false, m, nil
}

// tabIndex returns the position of the current status filter in statusTabs
func (m Model) tabIndex() int {
	return max(slices.Index(statusTabs, m.Filter.Status), 0)
}

// setStatusTab selects the status tab at idx, wrapping around
func (m *Model) setStatusTab(idx int) {
	n := len(statusTabs)
	m.Filter.Status = statusTabs[(idx%n+n)%n]
	m.refreshView()
}

// nextRatingFilter cycles none → Excellent → ... → Terrible → none
func nextRatingFilter(r domain.PersonalRating) domain.PersonalRating {
	if r == "" {
		return domain.PersonalRatings[0]
	}
	i := slices.Index(domain.PersonalRatings, r)
	if i < 0 || i == len(domain.PersonalRatings)-1 {
		return ""
	}
	return domain.PersonalRatings[i+1]
}
