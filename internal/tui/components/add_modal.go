package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/tui/styles"
)

// AddAction is what the add modal asks its owner to do after a key press
type AddAction int

const (
	AddNone   AddAction = iota
	AddSearch           // run a catalog search for Query()
	AddPick             // add Selected() to the library
	AddClose
)

// AddModal is the catalog search popup used to add titles
type AddModal struct {
	input    textinput.Model
	results  []domain.Candidate
	searched string // query the current results belong to
	cursor   int
	visible  bool
	loading  bool
	width    int
	height   int
}

// NewAddModal creates a new add modal
func NewAddModal() AddModal {
	ti := textinput.New()
	ti.Placeholder = "Search movies and series..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "+ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return AddModal{input: ti}
}

// Show makes the modal visible with an empty query
func (m *AddModal) Show() {
	m.visible = true
	m.input.SetValue("")
	m.input.Focus()
	m.results = nil
	m.searched = ""
	m.cursor = 0
	m.loading = false
}

// Hide dismisses the modal
func (m *AddModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m AddModal) IsVisible() bool {
	return m.visible
}

// SetSize updates the component dimensions
func (m *AddModal) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(min(width*2/3, 80)-10, 20)
}

// SetLoading marks a search as in flight
func (m *AddModal) SetLoading(loading bool) {
	m.loading = loading
}

// SetResults stores the results of a search. Results for a query the user
// has since edited away from are still shown; Enter then searches again.
func (m *AddModal) SetResults(query string, results []domain.Candidate) {
	m.results = results
	m.searched = query
	m.cursor = 0
	m.loading = false
}

// Query returns the trimmed search text
func (m AddModal) Query() string {
	return strings.TrimSpace(m.input.Value())
}

// Selected returns the highlighted candidate
func (m AddModal) Selected() (domain.Candidate, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return domain.Candidate{}, false
	}
	return m.results[m.cursor], true
}

// Update handles messages while visible
func (m AddModal) Update(msg tea.Msg) (AddModal, tea.Cmd, AddAction) {
	if !m.visible {
		return m, nil, AddNone
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, AddModalKeys.Escape):
			m.Hide()
			return m, nil, AddClose
		case key.Matches(keyMsg, AddModalKeys.Enter):
			if m.loading {
				return m, nil, AddNone
			}
			if len(m.results) > 0 && m.Query() == m.searched {
				return m, nil, AddPick
			}
			if m.Query() == "" {
				return m, nil, AddNone
			}
			return m, nil, AddSearch
		case key.Matches(keyMsg, AddModalKeys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil, AddNone
		case key.Matches(keyMsg, AddModalKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil, AddNone
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, AddNone
}

// View renders the modal centered in its area
func (m AddModal) View() string {
	if !m.visible {
		return ""
	}

	modalWidth := min(max(m.width*2/3, 40), 80)
	maxResults := max(min(m.height-12, 10), 3)

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Add to Library"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(styles.DimStyle.Render("Searching..."))
	case m.searched != "" && len(m.results) == 0:
		b.WriteString(styles.DimStyle.Render("No results"))
	default:
		m.renderResults(&b, modalWidth, maxResults)
	}

	content := lipgloss.NewStyle().
		Width(modalWidth - 4).
		Render(b.String())

	modal := styles.ModalStyle.
		Width(modalWidth).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m AddModal) renderResults(b *strings.Builder, modalWidth, maxResults int) {
	// Scroll window follows the cursor
	start := 0
	if m.cursor >= maxResults {
		start = m.cursor - maxResults + 1
	}
	end := min(start+maxResults, len(m.results))

	for i := start; i < end; i++ {
		c := m.results[i]

		badge := styles.DimBadgeStyle.Render("MOV")
		if c.Kind == domain.KindSeries {
			badge = styles.DimBadgeStyle.Render("TV")
		}

		title := c.Title
		if c.Year > 0 {
			title = fmt.Sprintf("%s (%d)", c.Title, c.Year)
		}
		title = styles.Truncate(title, modalWidth-16)

		style := lipgloss.NewStyle().Foreground(styles.LightGray)
		if i == m.cursor {
			style = lipgloss.NewStyle().Foreground(styles.White).Background(styles.SlateLight)
			title = styles.Pad(title, modalWidth-16)
		}
		b.WriteString(badge + " " + style.Render(title))
		if c.ExternalRating > 0 {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf(" %.1f", c.ExternalRating)))
		}
		b.WriteString("\n")
	}

	if len(m.results) > end {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("... and %d more", len(m.results)-end)))
	}
}
