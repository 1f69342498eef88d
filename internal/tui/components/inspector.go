package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/tui/styles"
)

// Layout constants for inspector
const (
	InspectorBorderHeight     = 2
	InspectorScrollIndicators = 2
)

// inspectorContent holds the three-zone layout content
type inspectorContent struct {
	header string // fixed top
	body   string // clipped middle
	footer string // fixed bottom
}

// Inspector displays details of the selected entry
type Inspector struct {
	entry      *domain.Entry
	width      int
	height     int
	maxVisible int
}

// NewInspector creates a new inspector component
func NewInspector() Inspector {
	return Inspector{}
}

// SetEntry sets the entry to display; nil clears it
func (i *Inspector) SetEntry(e *domain.Entry) {
	i.entry = e
}

// SetSize updates the component dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
	// Border, scroll indicators, title and blank line
	i.maxVisible = max(height-InspectorBorderHeight-InspectorScrollIndicators-2, 1)
}

// View renders the component
func (i Inspector) View() string {
	style := styles.InactiveBorder

	// Border takes 2 chars, leave 1 char safety margin
	contentWidth := max(i.width-3, 10)
	content := i.render(contentWidth)

	headerLines := splitLines(content.header)
	footerLines := splitLines(content.footer)
	bodyLines := splitLines(content.body)

	availableForBody := max(i.maxVisible-len(headerLines)-len(footerLines), 1)
	clipped := len(bodyLines) > availableForBody
	if clipped {
		bodyLines = bodyLines[:availableForBody]
	}

	parts := []string{styles.AccentStyle.Render("Info"), ""}
	if content.header != "" {
		parts = append(parts, headerLines...)
	}
	parts = append(parts, " ")
	parts = append(parts, bodyLines...)
	for j := len(bodyLines); j < availableForBody; j++ {
		parts = append(parts, "")
	}
	if clipped {
		parts = append(parts, styles.DimStyle.Render("↓ more"))
	} else {
		parts = append(parts, " ")
	}
	if content.footer != "" {
		parts = append(parts, footerLines...)
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(i.width-frameW, 0)).
		Height(max(i.height-frameH, 0)).
		Render(strings.Join(parts, "\n"))
}

func (i Inspector) render(width int) inspectorContent {
	if i.entry == nil {
		return inspectorContent{body: styles.DimStyle.Render("No item selected")}
	}
	e := *i.entry
	return inspectorContent{
		header: renderEntryHeader(e, width),
		body:   renderEntryBody(e, width),
		footer: renderEntryFooter(e, width),
	}
}

func renderEntryHeader(e domain.Entry, width int) string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(styles.Truncate(e.Title, width)))
	b.WriteString("\n")

	// Meta line: Year · Kind · Runtime
	var meta []string
	if e.Year > 0 {
		meta = append(meta, fmt.Sprintf("%d", e.Year))
	}
	meta = append(meta, e.Kind.String())
	if rt := e.FormattedRuntime(); rt != "" {
		meta = append(meta, rt)
	}
	b.WriteString(styles.DimStyle.Render(strings.Join(meta, " · ")))
	b.WriteString("\n")

	var status []string
	if e.ExternalRating > 0 {
		text := fmt.Sprintf("★ %.1f", e.ExternalRating)
		var rs lipgloss.Style
		switch {
		case e.ExternalRating >= 7:
			rs = lipgloss.NewStyle().Foreground(styles.Green)
		case e.ExternalRating >= 5:
			rs = lipgloss.NewStyle().Foreground(styles.Amber)
		default:
			rs = lipgloss.NewStyle().Foreground(styles.Red)
		}
		status = append(status, rs.Render(text))
	}
	status = append(status, StatusIndicator(e.Status)+" "+e.Status.String())
	if e.IsSeries() && !e.Progress.IsZero() {
		status = append(status, styles.AccentStyle.Render(e.EpisodeCode()))
	}
	b.WriteString(strings.Join(status, "   "))

	if e.PersonalRating != "" {
		b.WriteString("\n")
		b.WriteString(styles.RenderStars(e.PersonalRating.Ordinal()) + " " + styles.SubtitleStyle.Render(string(e.PersonalRating)))
	}

	return b.String()
}

func renderEntryBody(e domain.Entry, width int) string {
	if e.Synopsis == "" {
		return ""
	}
	return styles.SubtitleStyle.Render(wordWrap(e.Synopsis, min(width-2, 80)))
}

func renderEntryFooter(e domain.Entry, width int) string {
	var rows []string
	if e.IsMovie() {
		src := "Theatrical"
		if e.EffectiveReleaseSource() == domain.ReleaseVOD {
			src = "Streaming"
			if e.VodProvider != "" {
				src += " · " + string(e.VodProvider)
			}
		}
		rows = append(rows, src)
	}
	if e.AddedAt > 0 {
		rows = append(rows, "Added "+e.Added().Format("Jan 2, 2006"))
	}
	if len(rows) == 0 {
		return ""
	}

	lines := []string{styles.DimStyle.Render(strings.Repeat("─", width))}
	for _, r := range rows {
		lines = append(lines, styles.DimStyle.Render(styles.Truncate(r, width)))
	}
	return strings.Join(lines, "\n")
}

// splitLines splits a string into lines, returning nil for an empty string
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// wordWrap wraps text to the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wordLen := lipgloss.Width(word)
		if lineLen+wordLen+1 > width && lineLen > 0 {
			result.WriteString("\n")
			lineLen = 0
		}
		if i > 0 && lineLen > 0 {
			result.WriteString(" ")
			lineLen++
		}
		result.WriteString(word)
		lineLen += wordLen
	}
	return result.String()
}
