package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/tui/styles"
)

// EditField is one editable attribute in the edit modal
type EditField int

const (
	FieldStatus EditField = iota
	FieldRating
	FieldSource
	FieldProvider
	FieldSeason
	FieldEpisode
)

// String returns the label for the field
func (f EditField) String() string {
	switch f {
	case FieldStatus:
		return "Status"
	case FieldRating:
		return "Rating"
	case FieldSource:
		return "Release"
	case FieldProvider:
		return "Provider"
	case FieldSeason:
		return "Season"
	case FieldEpisode:
		return "Episode"
	default:
		return "Unknown"
	}
}

var statusCycle = []domain.Status{domain.StatusWatchlist, domain.StatusInProgress, domain.StatusWatched}

// EditModal edits the user-owned fields of one entry. Values cycle with
// left/right; fields that do not apply to the current values are hidden.
type EditModal struct {
	visible bool
	entry   domain.Entry
	cursor  int
}

// NewEditModal creates a new edit modal
func NewEditModal() EditModal {
	return EditModal{}
}

// Show opens the modal on a copy of e
func (m *EditModal) Show(e domain.Entry) {
	m.visible = true
	m.entry = e
	m.cursor = 0
	if e.IsSeries() && e.Progress.IsZero() {
		m.entry.Progress = domain.Progress{Season: 1, Episode: 1}
	}
}

// Hide dismisses the modal
func (m *EditModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m EditModal) IsVisible() bool {
	return m.visible
}

// Entry returns the entry with the edits applied so far
func (m EditModal) Entry() domain.Entry {
	return m.entry
}

// Fields returns the fields that apply to the entry being edited
func (m EditModal) Fields() []EditField {
	if m.entry.IsSeries() {
		return []EditField{FieldStatus, FieldSeason, FieldEpisode}
	}
	fields := []EditField{FieldStatus}
	if m.entry.Status == domain.StatusWatched {
		fields = append(fields, FieldRating)
	}
	fields = append(fields, FieldSource)
	if m.entry.EffectiveReleaseSource() == domain.ReleaseVOD {
		fields = append(fields, FieldProvider)
	}
	return fields
}

// HandleKey processes a key press. It returns the edited entry when the
// user saves; all keys are consumed while visible.
func (m *EditModal) HandleKey(msg tea.KeyMsg) (handled bool, saved *domain.Entry) {
	if !m.visible {
		return false, nil
	}

	fields := m.Fields()
	switch {
	case key.Matches(msg, EditModalKeys.Escape):
		m.visible = false
	case key.Matches(msg, EditModalKeys.Enter):
		m.visible = false
		e := m.entry
		return true, &e
	case key.Matches(msg, EditModalKeys.Down):
		if m.cursor < len(fields)-1 {
			m.cursor++
		}
	case key.Matches(msg, EditModalKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, EditModalKeys.Right):
		m.step(fields[m.cursor], 1)
	case key.Matches(msg, EditModalKeys.Left):
		m.step(fields[m.cursor], -1)
	}

	// Field list may have shrunk
	if n := len(m.Fields()); m.cursor >= n {
		m.cursor = n - 1
	}
	return true, nil
}

func (m *EditModal) step(f EditField, delta int) {
	e := &m.entry
	switch f {
	case FieldStatus:
		e.Status = cycle(statusCycle, e.Status, delta)
	case FieldRating:
		e.PersonalRating = cycle(append([]domain.PersonalRating{""}, domain.PersonalRatings...), e.PersonalRating, delta)
	case FieldSource:
		if e.EffectiveReleaseSource() == domain.ReleaseVOD {
			e.ReleaseSource = domain.ReleaseTheater
		} else {
			e.ReleaseSource = domain.ReleaseVOD
		}
	case FieldProvider:
		e.VodProvider = cycle(append([]domain.VodProvider{""}, domain.VodProviders...), e.VodProvider, delta)
	case FieldSeason:
		e.Progress.Season = max(e.Progress.Season+delta, 1)
	case FieldEpisode:
		e.Progress.Episode = max(e.Progress.Episode+delta, 1)
	}
}

// cycle returns the value delta steps from cur, wrapping around
func cycle[T comparable](values []T, cur T, delta int) T {
	idx := 0
	for i, v := range values {
		if v == cur {
			idx = i
			break
		}
	}
	n := len(values)
	return values[((idx+delta)%n+n)%n]
}

func (m EditModal) value(f EditField) string {
	e := m.entry
	switch f {
	case FieldStatus:
		return e.Status.String()
	case FieldRating:
		if e.PersonalRating == "" {
			return "None"
		}
		return string(e.PersonalRating)
	case FieldSource:
		if e.EffectiveReleaseSource() == domain.ReleaseVOD {
			return "Streaming"
		}
		return "Theatrical"
	case FieldProvider:
		if e.VodProvider == "" {
			return "Unknown"
		}
		return string(e.VodProvider)
	case FieldSeason:
		return fmt.Sprintf("%d", e.Progress.Season)
	case FieldEpisode:
		return fmt.Sprintf("%d", e.Progress.Episode)
	}
	return ""
}

// View renders the edit modal
func (m EditModal) View() string {
	if !m.visible {
		return ""
	}

	const labelWidth = 10
	const valueWidth = 16

	var lines []string
	for i, f := range m.Fields() {
		label := styles.DimStyle.Render(styles.Pad(f.String(), labelWidth))
		text := "‹ " + styles.Pad(m.value(f), valueWidth) + " ›"
		if i == m.cursor {
			lines = append(lines, label+lipgloss.NewStyle().
				Foreground(styles.White).
				Background(styles.SlateLight).
				Render(text))
		} else {
			lines = append(lines, label+lipgloss.NewStyle().
				Foreground(styles.LightGray).
				Render(text))
		}
	}

	title := styles.Truncate(m.entry.Title, labelWidth+valueWidth+4)
	help := styles.DimStyle.Render("←/→ change · enter save · esc cancel")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Amber).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n") + "\n\n" + help)
}
