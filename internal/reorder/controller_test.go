package reorder

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/hylla/fomo/internal/domain"
)

type taskCall struct {
	taskID   string
	groupID  string
	position int
}

type groupCall struct {
	groupID string
	order   int
}

type fakeStore struct {
	taskCalls  []taskCall
	groupCalls []groupCall
	counts     *domain.Counts
	err        error
}

func (f *fakeStore) MoveTask(_ context.Context, taskID, groupID string, position int) (*domain.Counts, error) {
	f.taskCalls = append(f.taskCalls, taskCall{taskID: taskID, groupID: groupID, position: position})
	return f.counts, f.err
}

func (f *fakeStore) ReorderGroup(_ context.Context, groupID string, order int) (*domain.Counts, error) {
	f.groupCalls = append(f.groupCalls, groupCall{groupID: groupID, order: order})
	return f.counts, f.err
}

// stackView lays every container out as a stack of two-row slots starting at row 0.
type stackView struct {
	ctrl *Controller
}

func (v stackView) Slots(containerID string) []Slot {
	container, ok := v.ctrl.Container(containerID)
	if !ok {
		return nil
	}
	out := make([]Slot, 0, len(container.Items))
	for idx, item := range container.Items {
		out = append(out, Slot{ItemID: item.ID, Top: float64(idx * 2), Height: 2})
	}
	return out
}

func testBoard() domain.Board {
	return domain.Board{
		Groups: []domain.Group{
			{ID: "A", Name: "Todo", Order: 1, TaskCount: 3},
			{ID: "B", Name: "Later", Order: 2, TaskCount: 0},
		},
		Tasks: []domain.Task{
			{ID: "T1", GroupID: "A", Position: 1, Title: "one", Priority: domain.PriorityMedium},
			{ID: "T2", GroupID: "A", Position: 2, Title: "two", Priority: domain.PriorityHigh},
			{ID: "T3", GroupID: "A", Position: 3, Title: "three", Priority: domain.PriorityLow},
			{ID: "I1", Position: 1, Title: "inbox", Priority: domain.PriorityMedium},
		},
		InboxCount: 1,
	}
}

func newTestController(t *testing.T, store *fakeStore) *Controller {
	t.Helper()
	ctrl := NewController(store, nil, WithIDGenerator(func() string { return "session-1" }))
	ctrl.SetView(stackView{ctrl: ctrl})
	ctrl.Load(testBoard())
	return ctrl
}

func itemIDs(t *testing.T, ctrl *Controller, containerID string) []string {
	t.Helper()
	container, ok := ctrl.Container(containerID)
	if !ok {
		t.Fatalf("container %q not found", containerID)
	}
	out := make([]string, 0, len(container.Items))
	for _, item := range container.Items {
		out = append(out, item.ID)
	}
	return out
}

func countOf(t *testing.T, ctrl *Controller, containerID string) int {
	t.Helper()
	container, ok := ctrl.Container(containerID)
	if !ok {
		t.Fatalf("container %q not found", containerID)
	}
	return container.Count
}

func TestLoadBuildsInboxFirstColumns(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	columns := ctrl.Columns()
	if len(columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(columns))
	}
	if columns[0].ID != domain.InboxID || columns[0].Title != "Inbox" || columns[1].ID != "A" || columns[2].ID != "B" {
		t.Fatalf("unexpected column order %#v", columns)
	}
	if got := itemIDs(t, ctrl, GroupListID); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("unexpected group list %v", got)
	}
	if countOf(t, ctrl, "A") != 3 || countOf(t, ctrl, domain.InboxID) != 1 {
		t.Fatal("expected counts from the server projection")
	}
	if _, ok := ctrl.Session(); ok {
		t.Fatal("expected no session after load")
	}
}

func TestDragToTopPersistsPositionOne(t *testing.T) {
	store := &fakeStore{}
	ctrl := newTestController(t, store)

	session, err := ctrl.BeginDrag("T3")
	if err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	if session.SourceID != "A" || session.ID != "session-1" {
		t.Fatalf("unexpected session %#v", session)
	}
	ctrl.DragOver("A", 0.5)
	move, ok := ctrl.Drop("A", 0.5)
	if !ok {
		t.Fatal("expected drop to apply a move")
	}
	if got := itemIDs(t, ctrl, "A"); !slices.Equal(got, []string{"T3", "T1", "T2"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if move.SessionID != "session-1" || move.FromPosition != 3 || move.ToPosition != 1 {
		t.Fatalf("unexpected move %#v", move)
	}

	result := ctrl.Persist(context.Background(), move)
	if !result.OK() {
		t.Fatalf("Persist() error = %v", result.Err)
	}
	if len(store.taskCalls) != 1 {
		t.Fatalf("expected one store call, got %d", len(store.taskCalls))
	}
	if got := store.taskCalls[0]; got != (taskCall{taskID: "T3", groupID: "A", position: 1}) {
		t.Fatalf("unexpected store call %#v", got)
	}
	if _, ok := ctrl.Session(); ok {
		t.Fatal("expected drop to end the session")
	}
}

func TestCrossColumnMoveIntoEmptyColumn(t *testing.T) {
	store := &fakeStore{}
	ctrl := newTestController(t, store)

	if _, err := ctrl.BeginDrag("T2"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	ctrl.DragOver("B", 0)
	move, ok := ctrl.Drop("B", 0)
	if !ok {
		t.Fatal("expected cross-column move")
	}
	if countOf(t, ctrl, "A") != 2 || countOf(t, ctrl, "B") != 1 {
		t.Fatalf("unexpected counts A=%d B=%d", countOf(t, ctrl, "A"), countOf(t, ctrl, "B"))
	}
	if move.FromContainer != "A" || move.ToContainer != "B" || move.ToPosition != 1 {
		t.Fatalf("unexpected move %#v", move)
	}
	ctrl.Persist(context.Background(), move)
	if got := store.taskCalls[0]; got.groupID != "B" || got.position != 1 {
		t.Fatalf("unexpected store call %#v", got)
	}
	groups := ctrl.GroupList()
	if groups.Items[1].Detail != "1 task" {
		t.Fatalf("expected group detail to follow the badge, got %q", groups.Items[1].Detail)
	}
}

func TestApplyLocalReorderIsIdempotent(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	if _, ok := ctrl.ApplyLocalReorder("T1", "A", "T3"); !ok {
		t.Fatal("expected first apply to change order")
	}
	first := itemIDs(t, ctrl, "A")
	if _, ok := ctrl.ApplyLocalReorder("T1", "A", "T3"); ok {
		t.Fatal("expected second apply to be a no-op")
	}
	if got := itemIDs(t, ctrl, "A"); !slices.Equal(got, first) {
		t.Fatalf("expected stable order %v, got %v", first, got)
	}
	if !slices.Equal(first, []string{"T2", "T1", "T3"}) {
		t.Fatalf("unexpected order %v", first)
	}
}

func TestApplyLocalReorderKeepsCountsConsistent(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	moves := []struct {
		item, target, before string
	}{
		{"T1", domain.InboxID, ""},
		{"I1", "B", ""},
		{"T3", "B", "I1"},
		{"T2", domain.InboxID, "T1"},
	}
	for _, mv := range moves {
		ctrl.ApplyLocalReorder(mv.item, mv.target, mv.before)
		for _, column := range ctrl.Columns() {
			if column.Count != len(column.Items) {
				t.Fatalf("after %v column %q count=%d items=%d", mv, column.ID, column.Count, len(column.Items))
			}
		}
	}
	if got := itemIDs(t, ctrl, "B"); !slices.Equal(got, []string{"T3", "I1"}) {
		t.Fatalf("unexpected B order %v", got)
	}
	if got := itemIDs(t, ctrl, domain.InboxID); !slices.Equal(got, []string{"T2", "T1"}) {
		t.Fatalf("unexpected inbox order %v", got)
	}
}

func TestDropOntoSelfDoesNotPersist(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	if _, err := ctrl.BeginDrag("T2"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	// T2 occupies rows 2..4; the pointer in its own slot resolves to T3, which keeps T2 in place.
	if _, ok := ctrl.Drop("A", 3); ok {
		t.Fatal("expected no move when dropping in place")
	}
	if got := itemIDs(t, ctrl, "A"); !slices.Equal(got, []string{"T1", "T2", "T3"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if _, ok := ctrl.ApplyLocalReorder("T2", "A", "T2"); ok {
		t.Fatal("expected insert-before-self to be a no-op")
	}
}

func TestPersistFailureRequestsReload(t *testing.T) {
	store := &fakeStore{err: errors.New("unexpected status 500")}
	ctrl := newTestController(t, store)
	move, ok := ctrl.ApplyLocalReorder("T3", "A", "T1")
	if !ok {
		t.Fatal("expected move")
	}
	result := ctrl.Persist(context.Background(), move)
	if result.OK() {
		t.Fatal("expected persist failure")
	}
	if got := ctrl.Resolve(result); got != ResolutionReload {
		t.Fatalf("Resolve() = %v, want reload", got)
	}
}

func TestResolveOverwritesCounts(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	counts := &domain.Counts{Groups: map[string]int{"A": 7}, Inbox: 4, HasInbox: true}
	if got := ctrl.Resolve(Result{Counts: counts}); got != ResolutionApplied {
		t.Fatalf("Resolve() = %v, want applied", got)
	}
	if countOf(t, ctrl, "A") != 7 || countOf(t, ctrl, domain.InboxID) != 4 {
		t.Fatal("expected acknowledged counts to win")
	}
	if countOf(t, ctrl, "B") != 0 {
		t.Fatal("expected unreported group count untouched")
	}
	if got := ctrl.Resolve(Result{}); got != ResolutionApplied {
		t.Fatalf("Resolve() without counts = %v", got)
	}
	if countOf(t, ctrl, "A") != 7 {
		t.Fatal("expected counts untouched when the server sent none")
	}
}

func TestResolveKeepsInboxBadgeWhenCountMissing(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	inboxBefore := countOf(t, ctrl, domain.InboxID)
	counts := &domain.Counts{Groups: map[string]int{"A": 3}}
	if got := ctrl.Resolve(Result{Counts: counts}); got != ResolutionApplied {
		t.Fatalf("Resolve() = %v, want applied", got)
	}
	if countOf(t, ctrl, "A") != 3 {
		t.Fatal("expected reported group count applied")
	}
	if got := countOf(t, ctrl, domain.InboxID); got != inboxBefore {
		t.Fatalf("inbox badge = %d, want %d kept", got, inboxBefore)
	}
}

func TestApplyLocalReorderNoOpLeavesItemsUntouched(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	column := ctrl.container("A")
	before := column.Items
	first, last := &before[0], &before[len(before)-1]
	for _, tc := range []struct{ itemID, beforeID string }{
		{itemID: first.ID, beforeID: before[1].ID},
		{itemID: last.ID, beforeID: ""},
	} {
		if _, ok := ctrl.ApplyLocalReorder(tc.itemID, "A", tc.beforeID); ok {
			t.Fatalf("ApplyLocalReorder(%s before %q) reported a move", tc.itemID, tc.beforeID)
		}
	}
	after := ctrl.container("A").Items
	if len(after) != len(before) || &after[0] != first || &after[len(after)-1] != last {
		t.Fatal("expected the no-op to keep the original item slice")
	}
}

func TestBeginDragUnknownItem(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	if _, err := ctrl.BeginDrag("missing"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
	if _, ok := ctrl.Session(); ok {
		t.Fatal("expected no session")
	}
	if _, ok := ctrl.Drop("A", 0); ok {
		t.Fatal("expected drop without session to be ignored")
	}
}

func TestWrongKindTargetIsIgnored(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	if _, err := ctrl.BeginDrag("T1"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	ctrl.DragOver(GroupListID, 0)
	markers := ctrl.Markers()
	if !slices.Contains(markers.ForContainer(GroupListID), MarkerOver) {
		t.Fatal("expected hovered container to be marked")
	}
	if slices.Contains(markers.ForContainer(GroupListID), MarkerTarget) {
		t.Fatal("expected no target for a container of the wrong kind")
	}
	if _, ok := ctrl.Drop(GroupListID, 0); ok {
		t.Fatal("expected task drop on group list to be ignored")
	}
	if _, ok := ctrl.Session(); ok {
		t.Fatal("expected session to end")
	}
	if _, ok := ctrl.ApplyLocalReorder("A", "B", ""); ok {
		t.Fatal("expected group into task column to be ignored")
	}
	if _, ok := ctrl.ApplyLocalReorder("T1", "missing", ""); ok {
		t.Fatal("expected unknown target to be ignored")
	}
}

func TestMarkersFollowSession(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	if ctrl.Markers().Active() {
		t.Fatal("expected inactive markers without a drag")
	}
	if _, err := ctrl.BeginDrag("T1"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	ctrl.DragOver("A", 3.5)
	markers := ctrl.Markers()
	if !slices.Equal(markers.ForItem("T1"), []string{MarkerDragging}) {
		t.Fatalf("unexpected dragged markers %v", markers.ForItem("T1"))
	}
	if !slices.Equal(markers.ForItem("T3"), []string{MarkerDragOverTop}) {
		t.Fatalf("unexpected target markers %v", markers.ForItem("T3"))
	}
	if !slices.Equal(markers.ForContainer("A"), []string{MarkerOver, MarkerTarget}) {
		t.Fatalf("unexpected container markers %v", markers.ForContainer("A"))
	}

	ctrl.DragOver(domain.InboxID, 10)
	markers = ctrl.Markers()
	if !slices.Equal(markers.ForItem("I1"), []string{MarkerDragOverBottom}) {
		t.Fatalf("expected bottom gutter on last inbox item, got %v", markers.ForItem("I1"))
	}
	if len(markers.ForContainer("A")) != 0 {
		t.Fatal("expected markers to leave the previous container")
	}
	if !slices.Contains(markers.ForContainer(domain.InboxID), MarkerTarget) {
		t.Fatal("expected inbox to be the target")
	}

	ctrl.DragLeave()
	markers = ctrl.Markers()
	if !markers.Active() || len(markers.ForContainer(domain.InboxID)) != 0 || len(markers.ForItem("I1")) != 0 {
		t.Fatalf("expected DragLeave to clear hover markers only, got %#v", markers)
	}
	if _, ok := ctrl.Session(); !ok {
		t.Fatal("expected DragLeave to keep the session")
	}

	ctrl.EndDrag()
	markers = ctrl.Markers()
	if markers.Active() || len(markers.ForItem("T1")) != 0 || len(markers.ForContainer(domain.InboxID)) != 0 {
		t.Fatal("expected EndDrag to clear every marker")
	}
}

func TestGroupReorderPersistsOrderAndSyncsColumns(t *testing.T) {
	store := &fakeStore{}
	ctrl := newTestController(t, store)
	if _, err := ctrl.BeginDrag("B"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	move, ok := ctrl.Drop(GroupListID, 0)
	if !ok {
		t.Fatal("expected group move")
	}
	if move.Kind != domain.MoveKindGroup || move.ToPosition != 1 {
		t.Fatalf("unexpected move %#v", move)
	}
	columns := ctrl.Columns()
	if columns[0].ID != domain.InboxID || columns[1].ID != "B" || columns[2].ID != "A" {
		t.Fatalf("expected columns to follow group order, got %v %v %v", columns[0].ID, columns[1].ID, columns[2].ID)
	}
	ctrl.Persist(context.Background(), move)
	if len(store.groupCalls) != 1 || store.groupCalls[0] != (groupCall{groupID: "B", order: 1}) {
		t.Fatalf("unexpected group calls %#v", store.groupCalls)
	}
	if len(store.taskCalls) != 0 {
		t.Fatal("expected no task calls for a group move")
	}
}

func TestNudgeAndShift(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})

	if _, ok := ctrl.Nudge("T1", -1); ok {
		t.Fatal("expected nudge above the top to be a no-op")
	}
	move, ok := ctrl.Nudge("T1", 1)
	if !ok || move.ToPosition != 2 {
		t.Fatalf("unexpected nudge move %#v ok=%t", move, ok)
	}
	if got := itemIDs(t, ctrl, "A"); !slices.Equal(got, []string{"T2", "T1", "T3"}) {
		t.Fatalf("unexpected order after nudge %v", got)
	}
	if _, ok := ctrl.Nudge("T1", 5); !ok {
		t.Fatal("expected clamped nudge to the bottom")
	}
	if got := itemIDs(t, ctrl, "A"); !slices.Equal(got, []string{"T2", "T3", "T1"}) {
		t.Fatalf("unexpected order after clamped nudge %v", got)
	}

	move, ok = ctrl.Shift("T1", domain.InboxID)
	if !ok || move.ToPosition != 2 {
		t.Fatalf("expected last task to append, got %#v ok=%t", move, ok)
	}
	move, ok = ctrl.Shift("T2", domain.InboxID)
	if !ok || move.ToPosition != 1 {
		t.Fatalf("expected first task to keep index 0, got %#v ok=%t", move, ok)
	}
	if got := itemIDs(t, ctrl, domain.InboxID); !slices.Equal(got, []string{"T2", "I1", "T1"}) {
		t.Fatalf("unexpected inbox order %v", got)
	}
	if _, ok := ctrl.Shift("T2", domain.InboxID); ok {
		t.Fatal("expected shift into the same column to be a no-op")
	}
	if _, ok := ctrl.Shift("A", "B"); ok {
		t.Fatal("expected groups to be unshiftable")
	}
}

func TestLoadDropsSession(t *testing.T) {
	ctrl := newTestController(t, &fakeStore{})
	if _, err := ctrl.BeginDrag("T1"); err != nil {
		t.Fatalf("BeginDrag() error = %v", err)
	}
	ctrl.ApplyLocalReorder("T1", "B", "")
	ctrl.Load(testBoard())
	if _, ok := ctrl.Session(); ok {
		t.Fatal("expected reload to discard the session")
	}
	if got := itemIDs(t, ctrl, "A"); !slices.Equal(got, []string{"T1", "T2", "T3"}) {
		t.Fatalf("expected server order after reload, got %v", got)
	}
}
