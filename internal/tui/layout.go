package tui

import (
	"charm.land/lipgloss/v2"
	"github.com/hylla/fomo/internal/reorder"
)

const (
	// boardTop is the screen row of the pane top borders: header line, then a spacer.
	boardTop      = 2
	footerLines   = 3
	sidebarWidth  = 22
	minColumnW    = 20
	maxColumnW    = 36
	minVisibleRow = 2
)

// paneLayout is the screen geometry of one rendered container.
type paneLayout struct {
	index    int
	id       string
	kind     reorder.Kind
	x0, x1   int
	itemsTop int
	visible  int
	offset   int
	items    []reorder.Item
}

// boardLayout maps containers to screen rows and columns. It implements reorder.View.
type boardLayout struct {
	panes       []paneLayout
	itemHeight  int
	hiddenLeft  int
	hiddenRight int
}

// Slots returns one slot per item, including items scrolled out of view above or below.
func (l boardLayout) Slots(containerID string) []reorder.Slot {
	pane, ok := l.pane(containerID)
	if !ok {
		return nil
	}
	slots := make([]reorder.Slot, 0, len(pane.items))
	for idx, item := range pane.items {
		slots = append(slots, reorder.Slot{
			ItemID: item.ID,
			Top:    float64(pane.itemsTop + (idx-pane.offset)*l.itemHeight),
			Height: float64(l.itemHeight),
		})
	}
	return slots
}

func (l boardLayout) pane(containerID string) (paneLayout, bool) {
	for _, pane := range l.panes {
		if pane.id == containerID {
			return pane, true
		}
	}
	return paneLayout{}, false
}

// paneAt returns the pane whose box covers a screen cell.
func (l boardLayout) paneAt(x, y int) (paneLayout, bool) {
	for _, pane := range l.panes {
		if x < pane.x0 || x >= pane.x1 {
			continue
		}
		if y < boardTop || y > pane.itemsTop+pane.visible*l.itemHeight {
			return paneLayout{}, false
		}
		return pane, true
	}
	return paneLayout{}, false
}

// itemAt returns the index of the item rendered on a screen row, or -1.
func (l boardLayout) itemAt(pane paneLayout, y int) int {
	if y < pane.itemsTop || y >= pane.itemsTop+pane.visible*l.itemHeight {
		return -1
	}
	idx := pane.offset + (y-pane.itemsTop)/l.itemHeight
	if idx >= len(pane.items) {
		return -1
	}
	return idx
}

// itemRow returns the screen row of an item's title line.
func (l boardLayout) itemRow(pane paneLayout, idx int) int {
	return pane.itemsTop + (idx-pane.offset)*l.itemHeight
}

// itemHeight returns the rows one item occupies.
func (m Model) itemHeight() int {
	if m.board.ShowDetail {
		return 2
	}
	return 1
}

// visibleItems returns how many items fit in one pane.
func (m Model) visibleItems() int {
	h := m.height
	if h <= 0 {
		h = 24
	}
	// header, spacer, borders, pane title, and footer.
	rows := h - boardTop - 3 - footerLines
	return max(minVisibleRow, rows/m.itemHeight())
}

// columnWidthFor returns the content width of one task column.
func (m Model) columnWidthFor(boardWidth, columns int) int {
	if columns == 0 {
		return maxColumnW
	}
	w := 28
	if boardWidth > 0 {
		usable := boardWidth - m.paneOuterWidth(sidebarWidth) - columns*m.paneFrameWidth()
		if candidate := usable / columns; candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, minColumnW, maxColumnW)
}

// paneFrameWidth returns the columns a pane adds around its content width.
func (m Model) paneFrameWidth() int {
	return m.paneOuterWidth(0)
}

// paneOuterWidth measures the rendered width of a pane box, margin included.
func (m Model) paneOuterWidth(width int) int {
	return lipgloss.Width(paneStyle(width).Render(""))
}

// layout computes pane geometry for the current board, focus, and window size.
func (m Model) layout() boardLayout {
	out := boardLayout{itemHeight: m.itemHeight()}
	visible := m.visibleItems()
	itemsTop := boardTop + 2

	groups := m.ctrl.GroupList()
	columns := m.ctrl.Columns()

	x := 0
	sidebar := paneLayout{
		index:    0,
		id:       groups.ID,
		kind:     groups.Kind,
		x0:       x,
		x1:       x + m.paneOuterWidth(sidebarWidth),
		itemsTop: itemsTop,
		visible:  visible,
		items:    groups.Items,
	}
	sidebar.offset = m.scrollOffset(0, len(groups.Items), visible)
	out.panes = append(out.panes, sidebar)
	x = sidebar.x1

	colWidth := m.columnWidthFor(m.width, len(columns))
	colOuter := m.paneOuterWidth(colWidth)
	fits := len(columns)
	if m.width > 0 {
		fits = max(1, (m.width-x)/max(1, colOuter))
	}
	first := 0
	if focus := m.pane - 1; focus >= fits {
		first = focus - fits + 1
	}
	for idx, column := range columns {
		if idx < first || idx >= first+fits {
			continue
		}
		paneIdx := idx + 1
		pane := paneLayout{
			index:    paneIdx,
			id:       column.ID,
			kind:     column.Kind,
			x0:       x,
			x1:       x + colOuter,
			itemsTop: itemsTop,
			visible:  visible,
			items:    column.Items,
		}
		pane.offset = m.scrollOffset(paneIdx, len(column.Items), visible)
		out.panes = append(out.panes, pane)
		x = pane.x1
	}
	out.hiddenLeft = first
	out.hiddenRight = max(0, len(columns)-first-fits)
	return out
}

// scrollOffset keeps the cursor visible in the focused pane.
func (m Model) scrollOffset(paneIdx, items, visible int) int {
	if paneIdx != m.pane || items <= visible {
		return 0
	}
	return clamp(m.cursor-visible+1, 0, items-visible)
}
