package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/fomo/internal/domain"
	"github.com/hylla/fomo/internal/reorder"
)

// Service is the application surface the board model needs.
type Service interface {
	reorder.Store
	LoadBoard(context.Context) (domain.Board, error)
	CachedBoard(context.Context) (domain.Board, time.Time, bool)
	RecordMove(context.Context, reorder.Result) error
}

// Logger is the structured logging surface the model writes to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Model is the bubbletea model of one board.
type Model struct {
	svc    Service
	ctrl   *reorder.Controller
	logger Logger

	ready  bool
	width  int
	height int
	err    error
	status string
	source string

	help     help.Model
	keys     keyMap
	markdown *markdownRenderer
	copyText func(string) error
	board    BoardConfig

	loaded   bool
	stale    bool
	staleAt  time.Time
	inFlight int
	showInfo bool

	// pane is 0 for the group sidebar, then 1+column index.
	pane   int
	cursor int
}

// cacheLoadedMsg carries the snapshot shown before the first live load.
type cacheLoadedMsg struct {
	board domain.Board
	at    time.Time
	ok    bool
}

// boardLoadedMsg carries one live board load.
type boardLoadedMsg struct {
	board domain.Board
	err   error
}

// persistResultMsg carries the store's answer to one move.
type persistResultMsg struct {
	result reorder.Result
}

// moveRecordedMsg reports the journal write for one move.
type moveRecordedMsg struct {
	err    error
	reload bool
}

// NewModel constructs a board model.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:      svc,
		logger:   nopLogger{},
		status:   "loading...",
		help:     h,
		keys:     newKeyMap(),
		markdown: &markdownRenderer{},
		copyText: writeClipboard,
		board:    DefaultBoardConfig(),
		pane:     1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.ctrl = reorder.NewController(svc, nil, reorder.WithLogger(m.logger))
	return m
}

// Init reads the cached snapshot; the live load follows it.
func (m Model) Init() tea.Cmd {
	return m.loadCached
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case cacheLoadedMsg:
		if msg.ok && !m.loaded {
			m.applyBoard(msg.board)
			m.stale = true
			m.staleAt = msg.at
			m.status = "cached board from " + formatAge(msg.at)
		}
		return m, m.loadBoard

	case boardLoadedMsg:
		if msg.err != nil {
			m.logger.Error("board load failed", "source", m.source, "err", msg.err)
			if !m.loaded && !m.stale {
				m.err = msg.err
				return m, nil
			}
			m.status = "offline: " + msg.err.Error()
			return m, nil
		}
		m.err = nil
		m.applyBoard(msg.board)
		m.loaded = true
		m.stale = false
		if m.status == "" || strings.HasSuffix(m.status, "...") || strings.HasPrefix(m.status, "cached board") || strings.HasPrefix(m.status, "offline") {
			m.status = "ready"
		}
		m.logger.Debug("board loaded", "groups", len(msg.board.Groups), "tasks", len(msg.board.Tasks))
		return m, nil

	case persistResultMsg:
		m.inFlight = max(0, m.inFlight-1)
		resolution := m.ctrl.Resolve(msg.result)
		reload := resolution == reorder.ResolutionReload
		if reload {
			m.status = "move failed, reloading: " + msg.result.Err.Error()
		} else {
			m.status = "saved"
		}
		return m, m.recordMove(msg.result, reload)

	case moveRecordedMsg:
		if msg.err != nil {
			m.logger.Warn("move journal write failed", "err", msg.err)
		}
		if msg.reload {
			return m, m.loadBoard
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadCached reads the snapshot cache.
func (m Model) loadCached() tea.Msg {
	board, at, ok := m.svc.CachedBoard(context.Background())
	return cacheLoadedMsg{board: board, at: at, ok: ok}
}

// loadBoard fetches the live board.
func (m Model) loadBoard() tea.Msg {
	board, err := m.svc.LoadBoard(context.Background())
	return boardLoadedMsg{board: board, err: err}
}

// persist sends one applied move to the store off the update loop.
func (m *Model) persist(move reorder.Move) tea.Cmd {
	m.inFlight++
	m.status = "saving..."
	ctrl := m.ctrl
	return func() tea.Msg {
		return persistResultMsg{result: ctrl.Persist(context.Background(), move)}
	}
}

// recordMove journals a persist result.
func (m Model) recordMove(result reorder.Result, reload bool) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return moveRecordedMsg{err: svc.RecordMove(context.Background(), result), reload: reload}
	}
}

// applyBoard replaces the controller model and keeps the cursor on the same item.
func (m *Model) applyBoard(board domain.Board) {
	selected := m.selectedItemID()
	m.ctrl.Load(board)
	if selected != "" && m.focusItem(selected) {
		return
	}
	m.clampCursor()
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		switch {
		case m.dragging():
			m.ctrl.EndDrag()
			m.status = "drag cancelled"
		case m.help.ShowAll:
			m.help.ShowAll = false
		case m.showInfo:
			m.showInfo = false
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadBoard
	}

	if m.err != nil || m.help.ShowAll {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.info):
		m.showInfo = !m.showInfo && m.selectedItemID() != ""
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		m.focusPane(m.pane - 1)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.focusPane(m.pane + 1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.cursor--
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.cursor++
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.nudgeUp):
		return m.nudgeSelected(-1)
	case key.Matches(msg, m.keys.nudgeDown):
		return m.nudgeSelected(1)
	case key.Matches(msg, m.keys.shiftLeft):
		return m.shiftSelected(-1)
	case key.Matches(msg, m.keys.shiftRight):
		return m.shiftSelected(1)
	case key.Matches(msg, m.keys.copyTitle):
		return m.copySelectedTitle()
	default:
		return m, nil
	}
}

// nudgeSelected moves the selected item one slot within its container.
func (m Model) nudgeSelected(delta int) (tea.Model, tea.Cmd) {
	itemID := m.selectedItemID()
	if itemID == "" || m.dragging() {
		return m, nil
	}
	move, ok := m.ctrl.Nudge(itemID, delta)
	if !ok {
		return m, nil
	}
	m.focusItem(itemID)
	return m, m.persist(move)
}

// shiftSelected moves the selected task into the neighbouring column.
func (m Model) shiftSelected(delta int) (tea.Model, tea.Cmd) {
	itemID := m.selectedItemID()
	if itemID == "" || m.pane == 0 || m.dragging() {
		return m, nil
	}
	columns := m.ctrl.Columns()
	target := m.pane - 1 + delta
	if target < 0 || target >= len(columns) {
		return m, nil
	}
	move, ok := m.ctrl.Shift(itemID, columns[target].ID)
	if !ok {
		return m, nil
	}
	m.focusItem(itemID)
	return m, m.persist(move)
}

// copySelectedTitle copies the selected item title to the system clipboard.
func (m Model) copySelectedTitle() (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		return m, nil
	}
	if err := m.copyText(item.Title); err != nil {
		m.status = "copy failed: " + err.Error()
		return m, nil
	}
	m.status = "copied " + truncate(item.Title, 32)
	return m, nil
}

// handleMouseClick starts a drag on the pressed item.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.help.ShowAll || m.err != nil {
		return m, nil
	}
	layout := m.layout()
	pane, ok := layout.paneAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.pane = pane.index
	idx := layout.itemAt(pane, msg.Y)
	if idx < 0 {
		m.clampCursor()
		return m, nil
	}
	m.cursor = idx
	if _, err := m.ctrl.BeginDrag(pane.items[idx].ID); err != nil {
		m.logger.Debug("drag start ignored", "item_id", pane.items[idx].ID, "err", err)
	}
	return m, nil
}

// handleMouseMotion tracks the hovered container while a drag is active.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.dragging() {
		return m, nil
	}
	layout := m.layout()
	m.ctrl.SetView(layout)
	pane, ok := layout.paneAt(msg.X, msg.Y)
	if !ok {
		m.ctrl.DragLeave()
		return m, nil
	}
	m.ctrl.DragOver(pane.id, pointerY(msg.Y))
	return m, nil
}

// handleMouseRelease drops the dragged item and persists the resulting move.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	session, active := m.ctrl.Session()
	if !active {
		return m, nil
	}
	layout := m.layout()
	m.ctrl.SetView(layout)
	pane, ok := layout.paneAt(msg.X, msg.Y)
	if !ok {
		m.ctrl.EndDrag()
		return m, nil
	}
	move, moved := m.ctrl.Drop(pane.id, pointerY(msg.Y))
	if !moved {
		return m, nil
	}
	m.focusItem(session.ItemID)
	return m, m.persist(move)
}

// handleMouseWheel moves the cursor in the focused pane.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.dragging() {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.cursor--
	case tea.MouseWheelDown:
		m.cursor++
	}
	m.clampCursor()
	return m, nil
}

// pointerY maps a terminal row to the vertical center of that cell.
func pointerY(row int) float64 {
	return float64(row) + 0.5
}

func (m Model) dragging() bool {
	_, ok := m.ctrl.Session()
	return ok
}

// paneContainer returns the container rendered in one pane.
func (m Model) paneContainer(idx int) (reorder.Container, bool) {
	if idx == 0 {
		return m.ctrl.GroupList(), true
	}
	columns := m.ctrl.Columns()
	if idx < 1 || idx > len(columns) {
		return reorder.Container{}, false
	}
	return columns[idx-1], true
}

func (m Model) paneCount() int {
	return len(m.ctrl.Columns()) + 1
}

func (m Model) selectedItem() (reorder.Item, bool) {
	container, ok := m.paneContainer(m.pane)
	if !ok || m.cursor < 0 || m.cursor >= len(container.Items) {
		return reorder.Item{}, false
	}
	return container.Items[m.cursor], true
}

func (m Model) selectedItemID() string {
	item, ok := m.selectedItem()
	if !ok {
		return ""
	}
	return item.ID
}

// focusPane moves focus to another pane and clamps the cursor.
func (m *Model) focusPane(idx int) {
	m.pane = clamp(idx, 0, m.paneCount()-1)
	m.clampCursor()
}

// focusItem moves focus onto an item wherever it now lives.
func (m *Model) focusItem(itemID string) bool {
	containerID, idx, ok := m.ctrl.Locate(itemID)
	if !ok {
		return false
	}
	if containerID == reorder.GroupListID {
		m.pane, m.cursor = 0, idx
		return true
	}
	for colIdx, column := range m.ctrl.Columns() {
		if column.ID == containerID {
			m.pane, m.cursor = colIdx+1, idx
			return true
		}
	}
	return false
}

func (m *Model) clampCursor() {
	m.pane = clamp(m.pane, 0, m.paneCount()-1)
	container, ok := m.paneContainer(m.pane)
	if !ok {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, len(container.Items)-1)
}

// formatAge renders how long ago a snapshot was saved.
func formatAge(at time.Time) string {
	if at.IsZero() {
		return "an unknown time"
	}
	age := time.Since(at).Round(time.Minute)
	if age < time.Minute {
		return "just now"
	}
	return fmt.Sprintf("%s ago", age)
}
