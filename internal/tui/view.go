package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/fomo/internal/reorder"
)

var (
	accentColor = lipgloss.Color("62")
	hoverColor  = lipgloss.Color("214")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
)

// paneStyle is the box every container renders in.
func paneStyle(width int) lipgloss.Style {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		MarginRight(1)
	if width > 0 {
		style = style.Width(width)
	}
	return style
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render builds the full screen.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	layout := m.layout()
	markers := m.ctrl.Markers()

	header := titleStyle.Render("fomo")
	if m.source != "" {
		header += "  " + m.source
	}
	if m.stale {
		header += statusStyle.Render("  [cached]")
	}
	if m.inFlight > 0 {
		header += statusStyle.Render(fmt.Sprintf("  saving %d", m.inFlight))
	}
	if layout.hiddenLeft > 0 || layout.hiddenRight > 0 {
		header += statusStyle.Render(fmt.Sprintf("  ‹%d  %d›", layout.hiddenLeft, layout.hiddenRight))
	}

	paneViews := make([]string, 0, len(layout.panes))
	for _, pane := range layout.panes {
		container, ok := m.paneContainer(pane.index)
		if !ok {
			continue
		}
		width := sidebarWidth
		if pane.index > 0 {
			width = m.columnWidthFor(m.width, len(m.ctrl.Columns()))
		}
		paneViews = append(paneViews, m.renderPane(pane, container, width, layout.itemHeight, markers))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, paneViews...)

	sections := []string{header, "", body}
	status := m.status
	if markers.Active() {
		status = m.dragStatus(markers)
	}
	if strings.TrimSpace(status) != "" && status != "ready" {
		sections = append(sections, statusStyle.Render(status))
	} else {
		sections = append(sections, "")
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay(m.width - 8)
	case m.showInfo:
		overlay = m.renderInfoOverlay(m.width - 8)
	}
	if overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

// renderPane renders one container box. Markers restyle rows but never add or remove them.
func (m Model) renderPane(pane paneLayout, container reorder.Container, width, itemHeight int, markers reorder.Markers) string {
	focused := pane.index == m.pane
	containerMarkers := markers.ForContainer(container.ID)

	style := paneStyle(width)
	switch {
	case slices.Contains(containerMarkers, reorder.MarkerOver):
		style = style.BorderForeground(hoverColor)
	case focused:
		style = style.BorderForeground(accentColor)
	}
	innerWidth := max(4, width-style.GetHorizontalFrameSize())

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	if slices.Contains(containerMarkers, reorder.MarkerTarget) {
		titleStyle = titleStyle.Foreground(hoverColor).Underline(true)
	}
	title := fmt.Sprintf("%s (%d)", container.Title, container.Count)
	if pane.offset > 0 {
		title += " ↑"
	}
	if pane.offset+pane.visible < len(container.Items) {
		title += " ↓"
	}
	lines := []string{titleStyle.Render(truncate(title, innerWidth))}

	rows := make([]string, 0, pane.visible*itemHeight)
	if len(container.Items) == 0 {
		rows = append(rows, lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render("(empty)"))
	}
	end := min(len(container.Items), pane.offset+pane.visible)
	for idx := pane.offset; idx < end; idx++ {
		item := container.Items[idx]
		selected := focused && idx == m.cursor
		rows = append(rows, m.renderItem(item, selected, itemHeight, innerWidth, markers.ForItem(item.ID))...)
	}
	for len(rows) < pane.visible*itemHeight {
		rows = append(rows, "")
	}
	lines = append(lines, rows...)
	return style.Render(strings.Join(lines, "\n"))
}

// renderItem renders the rows of one item with a two-cell gutter for selection and drop markers.
func (m Model) renderItem(item reorder.Item, selected bool, itemHeight, width int, itemMarkers []string) []string {
	titleStyle := lipgloss.NewStyle()
	detailStyle := lipgloss.NewStyle().Foreground(mutedColor)
	if item.Done && m.board.DimCompleted {
		titleStyle = titleStyle.Foreground(lipgloss.Color("243")).Strikethrough(true)
	}
	if selected {
		titleStyle = titleStyle.Foreground(lipgloss.Color("212")).Bold(true)
	}
	if slices.Contains(itemMarkers, reorder.MarkerDragging) {
		titleStyle = titleStyle.Faint(true).Italic(true)
		detailStyle = detailStyle.Faint(true).Italic(true)
	}
	gutterStyle := lipgloss.NewStyle().Foreground(hoverColor).Bold(true)

	gutter := "  "
	if selected {
		gutter = "│ "
	}
	titleGutter := gutter
	if slices.Contains(itemMarkers, reorder.MarkerDragOverTop) {
		titleGutter = gutterStyle.Render("▔▔")
	}
	textWidth := max(1, width-2)
	rows := []string{titleGutter + titleStyle.Render(truncate(item.Title, textWidth))}
	if itemHeight > 1 {
		rows = append(rows, gutter+detailStyle.Render(truncate(item.Detail, textWidth)))
	}
	if slices.Contains(itemMarkers, reorder.MarkerDragOverBottom) {
		last := len(rows) - 1
		rows[last] = gutterStyle.Render("▁▁") + strings.TrimPrefix(rows[last], gutter)
	}
	return rows
}

// dragStatus describes the active drag on the status line.
func (m Model) dragStatus(markers reorder.Markers) string {
	item, _ := m.itemByID(markers.Dragging)
	label := truncate(item.Title, 32)
	if !markers.Targeting {
		return "dragging " + label
	}
	target, _ := m.ctrl.Container(markers.Target)
	if markers.Before != "" {
		before, _ := m.itemByID(markers.Before)
		return fmt.Sprintf("dragging %s → %s, before %s", label, target.Title, truncate(before.Title, 24))
	}
	return fmt.Sprintf("dragging %s → end of %s", label, target.Title)
}

func (m Model) itemByID(itemID string) (reorder.Item, bool) {
	containerID, idx, ok := m.ctrl.Locate(itemID)
	if !ok {
		return reorder.Item{}, false
	}
	container, _ := m.ctrl.Container(containerID)
	return container.Items[idx], true
}

// renderHelpOverlay renders output for the current model state.
func (m Model) renderHelpOverlay(maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("fomo help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Drag and drop"),
		"1. press an item, drag it over a column, release to drop",
		"2. the gutter marks where it lands; esc cancels the drag",
		"3. drag groups in the sidebar to reorder the columns",
		"4. K/J and H/L move the selected item from the keyboard",
		"5. a failed save reloads the board from the server",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(mutedColor).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderInfoOverlay renders the selected item as markdown.
func (m Model) renderInfoOverlay(maxWidth int) string {
	width := clamp(maxWidth, 40, 80)
	body := m.markdown.render(m.itemMarkdown(), width-4)
	if body == "" {
		return ""
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(width).
		Render(body + "\n" + lipgloss.NewStyle().Foreground(mutedColor).Render("press i or esc to close"))
}

// itemMarkdown describes the selected item.
func (m Model) itemMarkdown() string {
	item, ok := m.selectedItem()
	if !ok {
		return ""
	}
	container, _ := m.paneContainer(m.pane)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", item.Title)
	fmt.Fprintf(&b, "- **%s:** %s\n", paneNoun(container.Kind), container.Title)
	fmt.Fprintf(&b, "- **Position:** %d of %d\n", m.cursor+1, len(container.Items))
	if item.Detail != "" {
		fmt.Fprintf(&b, "- **Details:** %s\n", item.Detail)
	}
	return b.String()
}

func paneNoun(kind reorder.Kind) string {
	if kind == reorder.KindGroupList {
		return "List"
	}
	return "Column"
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers an overlay over the base content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
