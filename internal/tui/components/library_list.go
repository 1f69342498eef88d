package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/tui/styles"
	"github.com/mmcdole/cinetrack/internal/view"
)

// Layout constants for the list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

type rowKind int

const (
	rowEntry rowKind = iota
	rowHeader
	rowPlaceholder
)

type listRow struct {
	kind  rowKind
	text  string // header or placeholder text
	entry int    // index into entries for rowEntry
}

// LibraryList is the scrollable list of library entries, optionally split
// into section headers
type LibraryList struct {
	entries []domain.Entry
	rows    []listRow
	total   int

	// Selection (cursor indexes entries, offset indexes rows)
	cursor     int
	offset     int
	maxVisible int

	width   int
	height  int
	focused bool
	title   string

	// Shown instead of rows when the view is empty
	emptyLines []string
}

// NewLibraryList creates an empty list
func NewLibraryList() *LibraryList {
	return &LibraryList{focused: true, title: "Library"}
}

// SetView replaces the displayed view, keeping the selected entry when it
// is still present
func (l *LibraryList) SetView(v view.View) {
	selectedID := ""
	if e, ok := l.Selected(); ok {
		selectedID = e.ID
	}

	l.entries = l.entries[:0]
	l.rows = l.rows[:0]
	l.total = v.Total

	if v.IsSectioned() {
		l.addSection(view.TheatricalTitle, v.Sections.Theatrical)
		l.addSection(view.StreamingTitle, v.Sections.Streaming)
	} else {
		for _, e := range v.Items {
			l.addEntry(e)
		}
	}

	l.cursor = 0
	for i, e := range l.entries {
		if e.ID == selectedID {
			l.cursor = i
			break
		}
	}
	l.ensureVisible()
}

func (l *LibraryList) addSection(title string, entries []domain.Entry) {
	l.rows = append(l.rows, listRow{kind: rowHeader, text: fmt.Sprintf("%s (%d)", title, len(entries))})
	if len(entries) == 0 {
		l.rows = append(l.rows, listRow{kind: rowPlaceholder, text: "Nothing here yet"})
		return
	}
	for _, e := range entries {
		l.addEntry(e)
	}
}

func (l *LibraryList) addEntry(e domain.Entry) {
	l.rows = append(l.rows, listRow{kind: rowEntry, entry: len(l.entries)})
	l.entries = append(l.entries, e)
}

// SetEmptyState sets the lines shown when no entry matches
func (l *LibraryList) SetEmptyState(lines []string) {
	l.emptyLines = lines
}

// SetTitle sets the title line
func (l *LibraryList) SetTitle(title string) {
	l.title = title
}

// SetFocused sets whether the list has keyboard focus
func (l *LibraryList) SetFocused(focused bool) {
	l.focused = focused
}

// SetSize updates the component dimensions
func (l *LibraryList) SetSize(width, height int) {
	l.width = width
	l.height = height
	// Interior height minus title and scroll indicators
	l.maxVisible = height - BorderHeight - ScrollIndicatorLines - 1
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
	l.ensureVisible()
}

// Selected returns the entry under the cursor
func (l *LibraryList) Selected() (domain.Entry, bool) {
	if l.cursor < 0 || l.cursor >= len(l.entries) {
		return domain.Entry{}, false
	}
	return l.entries[l.cursor], true
}

// Len returns the number of selectable entries
func (l *LibraryList) Len() int {
	return len(l.entries)
}

// HandleKey moves the cursor; it reports whether the key was consumed
func (l *LibraryList) HandleKey(msg tea.KeyMsg) bool {
	count := len(l.entries)
	if count == 0 {
		return false
	}

	switch {
	case key.Matches(msg, LibraryListKeys.Down):
		if l.cursor < count-1 {
			l.cursor++
		}
	case key.Matches(msg, LibraryListKeys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(msg, LibraryListKeys.Home):
		l.cursor = 0
		l.offset = 0
	case key.Matches(msg, LibraryListKeys.End):
		l.cursor = count - 1
	case key.Matches(msg, LibraryListKeys.HalfDown):
		l.cursor = min(l.cursor+l.maxVisible/2, count-1)
	case key.Matches(msg, LibraryListKeys.HalfUp):
		l.cursor = max(l.cursor-l.maxVisible/2, 0)
	case key.Matches(msg, LibraryListKeys.PageDown):
		l.cursor = min(l.cursor+l.maxVisible, count-1)
	case key.Matches(msg, LibraryListKeys.PageUp):
		l.cursor = max(l.cursor-l.maxVisible, 0)
	default:
		return false
	}
	l.ensureVisible()
	return true
}

// cursorRow returns the row index of the selected entry
func (l *LibraryList) cursorRow() int {
	for i, r := range l.rows {
		if r.kind == rowEntry && r.entry == l.cursor {
			return i
		}
	}
	return 0
}

func (l *LibraryList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	row := l.cursorRow()
	// Keep a section header visible above its first entry
	if row > 0 && l.rows[row-1].kind == rowHeader {
		row--
	}
	if row < l.offset {
		l.offset = row
	}
	if cur := l.cursorRow(); cur >= l.offset+l.maxVisible {
		l.offset = cur - l.maxVisible + 1
	}
	if maxOffset := max(len(l.rows)-l.maxVisible, 0); l.offset > maxOffset {
		l.offset = maxOffset
	}
}

// View renders the list
func (l *LibraryList) View() string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent())
}

func (l *LibraryList) renderContent() string {
	itemWidth := max(l.width-BorderWidth, 10)
	titleLine := styles.AccentStyle.Render(styles.Truncate(l.title, itemWidth))

	if l.total == 0 {
		lines := []string{titleLine, " "}
		if len(l.emptyLines) == 0 {
			lines = append(lines, styles.DimStyle.Render("No items"))
		}
		for _, line := range l.emptyLines {
			lines = append(lines, styles.DimStyle.Render(styles.Truncate(line, itemWidth)))
		}
		return strings.Join(lines, "\n")
	}

	end := min(l.offset+l.maxVisible, len(l.rows))
	cursorRow := l.cursorRow()

	var lines []string
	for i := l.offset; i < end; i++ {
		r := l.rows[i]
		switch r.kind {
		case rowHeader:
			lines = append(lines, " "+styles.SectionStyle.Render(styles.Truncate(r.text, itemWidth-1)))
		case rowPlaceholder:
			lines = append(lines, "   "+styles.DimStyle.Render(r.text))
		default:
			lines = append(lines, renderEntryRow(l.entries[r.entry], l.focused && i == cursorRow, itemWidth))
		}
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < len(l.rows) {
		footer = styles.DimStyle.Render("↓ more")
	}

	return titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
}

// StatusIndicator returns the styled status glyph for an entry
func StatusIndicator(s domain.Status) string {
	switch s {
	case domain.StatusWatched:
		return styles.WatchedStyle.Render(styles.WatchedChar)
	case domain.StatusInProgress:
		return styles.InProgressStyle.Render(styles.InProgressChar)
	default:
		return styles.WatchlistStyle.Render(styles.WatchlistChar)
	}
}

func renderEntryRow(e domain.Entry, selected bool, width int) string {
	green := styles.Green
	amber := styles.Amber
	dim := styles.DimGray

	indicatorColor := &dim
	indicatorChar := styles.WatchlistChar
	switch e.Status {
	case domain.StatusWatched:
		indicatorColor, indicatorChar = &green, styles.WatchedChar
	case domain.StatusInProgress:
		indicatorColor, indicatorChar = &amber, styles.InProgressChar
	}

	var suffix []styles.RowPart
	if e.IsSeries() && !e.Progress.IsZero() {
		suffix = append(suffix, styles.RowPart{Text: " " + e.EpisodeCode(), Foreground: &amber})
	}
	if e.PersonalRating != "" {
		suffix = append(suffix, styles.RowPart{Text: " " + strings.Repeat("★", e.PersonalRating.Ordinal()), Foreground: &amber})
	}
	if e.EffectiveReleaseSource() == domain.ReleaseVOD && e.VodProvider != "" {
		suffix = append(suffix, styles.RowPart{Text: " " + string(e.VodProvider), Foreground: &dim})
	}
	if e.IsSeries() {
		suffix = append(suffix, styles.RowPart{Text: " [TV]", Foreground: &dim})
	}

	suffixWidth := 0
	for _, p := range suffix {
		suffixWidth += lipgloss.Width(p.Text)
	}

	title := e.Title
	if e.Year > 0 {
		title = fmt.Sprintf("%s (%d)", e.Title, e.Year)
	}
	// Indicator, spaces and margins take 6 columns
	title = styles.Truncate(title, max(width-suffixWidth-6, 4))

	parts := []styles.RowPart{
		{Text: indicatorChar, Foreground: indicatorColor},
		{Text: " " + title},
	}
	parts = append(parts, suffix...)
	return styles.RenderListRow(parts, selected, width)
}
