package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/tui/styles"
)

// renderTabs renders the status tabs, with the session label on the right
func (m Model) renderTabs() string {
	var tabs []string
	for i, s := range statusTabs {
		label := fmt.Sprintf("%d %s", i+1, statusLabel(s))
		if s == m.Filter.Status {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	left := strings.Join(tabs, " ")

	right := ""
	if m.SessionLabel != "" {
		right = styles.DimBadgeStyle.Render(m.SessionLabel)
	}
	return joinEnds(left, right, m.Width)
}

// renderFilterBar renders the search box and the active kind, sort and rating
func (m Model) renderFilterBar() string {
	var left string
	switch {
	case m.State == StateFiltering:
		left = m.Search.View()
	case m.Filter.Search != "":
		left = styles.FilterPromptStyle.Render("/ ") + styles.FilterStyle.Render(m.Filter.Search)
	default:
		left = styles.DimStyle.Render("/ search")
	}

	kind := "All kinds"
	switch m.Filter.Kind {
	case domain.KindMovie:
		kind = "Movies"
	case domain.KindSeries:
		kind = "Series"
	}
	badges := []string{
		styles.BadgeStyle.Render(kind),
		styles.DimBadgeStyle.Render("Sort: " + m.Filter.Sort.String()),
	}
	if m.Filter.Rating != "" {
		rating := "★ " + string(m.Filter.Rating)
		if m.Filter.RatingApplies() {
			badges = append(badges, styles.BadgeStyle.Render(rating))
		} else {
			badges = append(badges, styles.DimBadgeStyle.Render(rating))
		}
	}
	return joinEnds(left, strings.Join(badges, " "), m.Width)
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.SuccessStyle.Render(m.StatusMsg)
	case m.Loading:
		left = styles.DimStyle.Render("Loading...")
	default:
		left = styles.DimStyle.Render(showingText(m.View.Total))
	}

	var hints []string
	if e, ok := m.selected(); ok {
		hints = append(hints, hint("e", "edit"))
		if e.Status != domain.StatusWatched {
			hints = append(hints, hint("w", "watched"))
		}
		if e.IsSeries() {
			hints = append(hints, hint("n", "next ep"))
		}
	}
	hints = append(hints, hint("a", "add"), hint("?", "help"))
	right := strings.Join(hints, "  ")

	return joinEnds(left, right, m.Width)
}

// showingText is the item count line
func showingText(n int) string {
	if n == 1 {
		return "Showing 1 item"
	}
	return fmt.Sprintf("Showing %d items", n)
}

func hint(k, desc string) string {
	return styles.HelpKeyStyle.Render(k) + styles.HelpDescStyle.Render(" "+desc)
}

// joinEnds places left and right at the edges of a line of the given width
func joinEnds(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      ACTIONS
  j/k        Up/down               a      Add a title
  g/Home     First item            e      Edit entry
  G/End      Last item             w      Mark watched
  PgUp/PgDn  Scroll page           n      Next episode
  Ctrl+u/d   Scroll half page      x      Delete entry

FILTERS                         OTHER
  Tab/1-4    Status tabs           i      Toggle inspector
  t          Movies/series         L      Logout
  s          Cycle sort            q      Quit
  r          Rating filter         ?      This help
  /          Search                Esc    Close / Clear

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderDeleteConfirmation renders the delete confirmation modal
func (m Model) renderDeleteConfirmation() string {
	title := ""
	if m.pendingDelete != nil {
		title = styles.Truncate(m.pendingDelete.Title, 40)
	}
	modal := styles.ModalTitleStyle.Render("Delete Entry?") + "\n" +
		styles.SubtitleStyle.Render(title) + "\n\n" +
		"  This cannot be undone.\n\n" +
		"      [Y] Yes      [N] No"

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// renderLogoutConfirmation renders the logout confirmation modal
func (m Model) renderLogoutConfirmation() string {
	modal := `
              Log Out?

  This ends the current session and
  returns to the sign-in prompt.

        [Y] Yes      [N] No
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
