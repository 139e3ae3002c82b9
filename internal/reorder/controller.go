package reorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hylla/fomo/internal/domain"
)

// ErrUnknownItem is returned when a drag starts on an item the board does not hold.
var ErrUnknownItem = errors.New("unknown item")

// Store persists moves. Implementations return the server's acknowledged counts, or nil when
// the server confirmed the move without sending any.
type Store interface {
	MoveTask(ctx context.Context, taskID, groupID string, position int) (*domain.Counts, error)
	ReorderGroup(ctx context.Context, groupID string, order int) (*domain.Counts, error)
}

// View supplies rendered item geometry for one container.
type View interface {
	Slots(containerID string) []Slot
}

// Logger is the structured logging surface the controller writes to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Session is the state of one in-progress drag.
type Session struct {
	ID       string
	ItemID   string
	SourceID string
	HoverID  string
	BeforeID string
	// Hovering is set once the pointer has been over a known container; HoverID may be the inbox.
	Hovering bool
	// HasTarget reports whether the hovered container accepts the dragged item.
	HasTarget bool
}

// Move describes one applied local reorder.
type Move struct {
	Kind          domain.MoveKind
	SessionID     string
	ItemID        string
	FromContainer string
	ToContainer   string
	FromPosition  int
	ToPosition    int
}

// Result is the outcome of one persist call.
type Result struct {
	Move   Move
	Counts *domain.Counts
	Err    error
}

// OK reports whether the store accepted the move.
func (r Result) OK() bool {
	return r.Err == nil
}

// Resolution tells the caller what to do after a persist result was handled.
type Resolution int

// ResolutionApplied and related constants describe result handling.
const (
	ResolutionApplied Resolution = iota
	// ResolutionReload means optimistic state is void and the full board must be reloaded.
	ResolutionReload
)

// Option configures a controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// Controller owns the board model and the drag session. It is not safe for concurrent use;
// only Persist may run off the owning goroutine.
type Controller struct {
	store   Store
	view    View
	logger  Logger
	newID   func() string
	groups  *Container
	columns []*Container
	session *Session
}

// NewController constructs an empty controller.
func NewController(store Store, view View, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		view:   view,
		logger: nopLogger{},
		newID:  uuid.NewString,
		groups: &Container{ID: GroupListID, Kind: KindGroupList, Title: "Groups"},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetView replaces the geometry source.
func (c *Controller) SetView(view View) {
	c.view = view
}

// Load replaces the model with a fresh server projection and drops any session.
func (c *Controller) Load(board domain.Board) {
	c.groups, c.columns = buildContainers(board)
	c.session = nil
}

// Columns returns copies of the task columns in display order.
func (c *Controller) Columns() []Container {
	out := make([]Container, 0, len(c.columns))
	for _, column := range c.columns {
		out = append(out, column.clone())
	}
	return out
}

// GroupList returns a copy of the group list container.
func (c *Controller) GroupList() Container {
	return c.groups.clone()
}

// Container returns a copy of one container by id.
func (c *Controller) Container(id string) (Container, bool) {
	found := c.container(id)
	if found == nil {
		return Container{}, false
	}
	return found.clone(), true
}

// Locate returns the container id and 0-based index of an item.
func (c *Controller) Locate(itemID string) (string, int, bool) {
	container, idx := c.locate(itemID)
	if container == nil {
		return "", -1, false
	}
	return container.ID, idx, true
}

// Session returns the active drag session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// BeginDrag marks an item as the active drag subject, replacing any earlier session.
func (c *Controller) BeginDrag(itemID string) (Session, error) {
	container, _ := c.locate(itemID)
	if container == nil {
		return Session{}, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	c.session = &Session{
		ID:       c.newID(),
		ItemID:   itemID,
		SourceID: container.ID,
	}
	c.logger.Debug("drag started", "session_id", c.session.ID, "item_id", itemID, "container_id", container.ID)
	return *c.session, nil
}

// ComputeInsertionPoint returns the sibling to insert before for a pointer in a container.
// An empty result means append.
func (c *Controller) ComputeInsertionPoint(containerID string, pointerY float64) string {
	if c.view == nil {
		return ""
	}
	dragged := ""
	if c.session != nil {
		dragged = c.session.ItemID
	}
	return InsertionPoint(c.view.Slots(containerID), dragged, pointerY)
}

// DragOver records the hovered container and the insertion point for the active session.
func (c *Controller) DragOver(containerID string, pointerY float64) {
	if c.session == nil {
		return
	}
	c.session.HoverID = ""
	c.session.Hovering = false
	c.session.BeforeID = ""
	c.session.HasTarget = false
	target := c.container(containerID)
	if target == nil {
		return
	}
	c.session.HoverID = containerID
	c.session.Hovering = true
	if !c.accepts(target, c.session.ItemID) {
		return
	}
	c.session.HasTarget = true
	c.session.BeforeID = c.ComputeInsertionPoint(containerID, pointerY)
}

// DragLeave clears the hovered container while keeping the session alive.
func (c *Controller) DragLeave() {
	if c.session == nil {
		return
	}
	c.session.HoverID = ""
	c.session.Hovering = false
	c.session.BeforeID = ""
	c.session.HasTarget = false
}

// ApplyLocalReorder moves an item before beforeID in the target container, appending when
// beforeID is empty or absent. It reports false and leaves the model untouched when the
// target is unknown, of the wrong kind, or the item would land where it already is.
func (c *Controller) ApplyLocalReorder(itemID, targetContainerID, beforeID string) (Move, bool) {
	source, fromIdx := c.locate(itemID)
	target := c.container(targetContainerID)
	if source == nil || target == nil || !c.accepts(target, itemID) {
		return Move{}, false
	}
	if beforeID == itemID {
		return Move{}, false
	}

	// insertAt is measured in the target after the item has left its source.
	insertAt := target.IndexOf(beforeID)
	if beforeID == "" || insertAt < 0 {
		insertAt = len(target.Items)
		if source == target {
			insertAt--
		}
	} else if source == target && insertAt > fromIdx {
		insertAt--
	}
	if source == target && insertAt == fromIdx {
		return Move{}, false
	}

	move := Move{
		Kind:          domain.MoveKindTask,
		ItemID:        itemID,
		FromContainer: source.ID,
		ToContainer:   target.ID,
		FromPosition:  fromIdx + 1,
		ToPosition:    insertAt + 1,
	}
	if target.Kind == KindGroupList {
		move.Kind = domain.MoveKindGroup
	}
	if c.session != nil && c.session.ItemID == itemID {
		move.SessionID = c.session.ID
	}

	item := source.Items[fromIdx]
	source.Items = withoutItem(source.Items, fromIdx)
	target.Items = append(target.Items[:insertAt:insertAt], append([]Item{item}, target.Items[insertAt:]...)...)

	source.Count = len(source.Items)
	target.Count = len(target.Items)
	if move.Kind == domain.MoveKindGroup {
		c.syncColumnOrder()
	} else {
		c.syncGroupDetail(source)
		c.syncGroupDetail(target)
	}
	c.logger.Debug("local reorder applied",
		"kind", move.Kind,
		"item_id", move.ItemID,
		"from", move.FromContainer,
		"to", move.ToContainer,
		"position", move.ToPosition,
	)
	return move, true
}

// Persist sends one move to the store. There is no retry.
func (c *Controller) Persist(ctx context.Context, move Move) Result {
	if c.store == nil {
		return Result{Move: move, Err: errors.New("no store configured")}
	}
	var (
		counts *domain.Counts
		err    error
	)
	switch move.Kind {
	case domain.MoveKindGroup:
		counts, err = c.store.ReorderGroup(ctx, move.ItemID, move.ToPosition)
	default:
		counts, err = c.store.MoveTask(ctx, move.ItemID, move.ToContainer, move.ToPosition)
	}
	return Result{Move: move, Counts: counts, Err: err}
}

// Resolve handles one persist result. Acknowledged counts overwrite the badges.
func (c *Controller) Resolve(result Result) Resolution {
	if result.Err != nil {
		c.logger.Error("persist move failed; reloading board",
			"kind", result.Move.Kind,
			"item_id", result.Move.ItemID,
			"group_id", result.Move.ToContainer,
			"position", result.Move.ToPosition,
			"err", result.Err,
		)
		return ResolutionReload
	}
	if result.Counts != nil {
		c.applyCounts(*result.Counts)
	}
	return ResolutionApplied
}

// EndDrag clears the session and every marker.
func (c *Controller) EndDrag() {
	c.session = nil
}

// Drop finishes the active drag over a container. The session always ends.
func (c *Controller) Drop(containerID string, pointerY float64) (Move, bool) {
	defer c.EndDrag()
	if c.session == nil {
		return Move{}, false
	}
	target := c.container(containerID)
	if target == nil || !c.accepts(target, c.session.ItemID) {
		return Move{}, false
	}
	beforeID := c.ComputeInsertionPoint(containerID, pointerY)
	return c.ApplyLocalReorder(c.session.ItemID, containerID, beforeID)
}

// Nudge moves an item by delta slots within its container.
func (c *Controller) Nudge(itemID string, delta int) (Move, bool) {
	container, idx := c.locate(itemID)
	if container == nil || delta == 0 {
		return Move{}, false
	}
	rest := withoutItem(container.Items, idx)
	next := min(max(idx+delta, 0), len(rest))
	beforeID := ""
	if next < len(rest) {
		beforeID = rest[next].ID
	}
	return c.ApplyLocalReorder(itemID, container.ID, beforeID)
}

// Shift moves a task to another column, keeping its index where the target allows.
// A task that was last in its column is appended.
func (c *Controller) Shift(itemID, targetContainerID string) (Move, bool) {
	source, idx := c.locate(itemID)
	target := c.container(targetContainerID)
	if source == nil || target == nil || source == target || !c.accepts(target, itemID) {
		return Move{}, false
	}
	beforeID := ""
	if idx < len(source.Items)-1 && idx < len(target.Items) {
		beforeID = target.Items[idx].ID
	}
	return c.ApplyLocalReorder(itemID, target.ID, beforeID)
}

func (c *Controller) container(id string) *Container {
	if id == GroupListID {
		return c.groups
	}
	for _, column := range c.columns {
		if column.ID == id {
			return column
		}
	}
	return nil
}

func (c *Controller) locate(itemID string) (*Container, int) {
	if itemID == "" {
		return nil, -1
	}
	if idx := c.groups.IndexOf(itemID); idx >= 0 {
		return c.groups, idx
	}
	for _, column := range c.columns {
		if idx := column.IndexOf(itemID); idx >= 0 {
			return column, idx
		}
	}
	return nil, -1
}

// accepts reports whether target holds the same kind of item as the one being moved.
func (c *Controller) accepts(target *Container, itemID string) bool {
	source, _ := c.locate(itemID)
	return source != nil && source.Kind == target.Kind
}

// syncColumnOrder reorders task columns to follow the group list, inbox first.
func (c *Controller) syncColumnOrder() {
	byID := make(map[string]*Container, len(c.columns))
	for _, column := range c.columns {
		byID[column.ID] = column
	}
	ordered := make([]*Container, 0, len(c.columns))
	if inbox, ok := byID[domain.InboxID]; ok {
		ordered = append(ordered, inbox)
		delete(byID, domain.InboxID)
	}
	for _, item := range c.groups.Items {
		if column, ok := byID[item.ID]; ok {
			ordered = append(ordered, column)
			delete(byID, item.ID)
		}
	}
	for _, column := range c.columns {
		if _, ok := byID[column.ID]; ok {
			ordered = append(ordered, column)
		}
	}
	c.columns = ordered
}

func (c *Controller) syncGroupDetail(column *Container) {
	if idx := c.groups.IndexOf(column.ID); idx >= 0 {
		c.groups.Items[idx].Detail = groupDetail(column.Count)
	}
}

func (c *Controller) applyCounts(counts domain.Counts) {
	for _, column := range c.columns {
		n, ok := counts.For(column.ID)
		if !ok {
			continue
		}
		column.Count = n
		c.syncGroupDetail(column)
	}
}

func withoutItem(items []Item, idx int) []Item {
	out := make([]Item, 0, len(items))
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}
