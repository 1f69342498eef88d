package tui

// Layout proportions
const (
	// Inspector share of the width when shown
	InspectorPercent = 40

	// Below this width the inspector is hidden regardless of the toggle
	MinInspectorLayoutWidth = 80

	MinColumnWidth = 20

	// Tabs, filter bar and footer each take one line
	ChromeHeight = 3
)

// screenLayout holds calculated widths for the View
type screenLayout struct {
	listWidth      int
	inspectorWidth int // 0 if not shown
	contentHeight  int
}

// calculateLayout computes the list and inspector widths
func (m Model) calculateLayout() screenLayout {
	layout := screenLayout{
		listWidth:     m.Width,
		contentHeight: max(m.Height-ChromeHeight, 3),
	}
	if m.ShowInspector && m.Width >= MinInspectorLayoutWidth {
		layout.inspectorWidth = max(m.Width*InspectorPercent/100, MinColumnWidth)
		layout.listWidth = max(m.Width-layout.inspectorWidth, MinColumnWidth)
	}
	return layout
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	layout := m.calculateLayout()
	m.List.SetSize(layout.listWidth, layout.contentHeight)
	m.Inspector.SetSize(layout.inspectorWidth, layout.contentHeight)
	m.AddModal.SetSize(m.Width, m.Height)
	m.Search.Width = max(m.Width/2, 20)
}
