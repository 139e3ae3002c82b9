package reorder

import (
	"fmt"
	"strings"

	"github.com/hylla/fomo/internal/domain"
)

// Kind separates the two families of containers; items never cross families.
type Kind string

// KindTaskColumn and related constants define the container families.
const (
	KindTaskColumn Kind = "tasks"
	KindGroupList  Kind = "groups"
)

// GroupListID is the container id of the sidebar group list.
const GroupListID = "groups"

const inboxTitle = "Inbox"

// Item is one draggable entry. Its display order is its 1-based index in the owning container.
type Item struct {
	ID     string
	Title  string
	Detail string
	Done   bool
}

// Container is an ordered list of items with a displayed count badge.
type Container struct {
	ID    string
	Kind  Kind
	Title string
	Items []Item
	Count int
}

// IndexOf returns the 0-based index of an item, or -1.
func (c Container) IndexOf(itemID string) int {
	for idx, item := range c.Items {
		if item.ID == itemID {
			return idx
		}
	}
	return -1
}

func (c Container) clone() Container {
	c.Items = append([]Item(nil), c.Items...)
	return c
}

func taskItem(task domain.Task) Item {
	parts := []string{string(task.Priority)}
	if task.Repeats() {
		parts = append(parts, string(task.Repeat))
	}
	if task.Completed {
		parts = append(parts, "done")
	}
	return Item{
		ID:     task.ID,
		Title:  task.Title,
		Detail: strings.Join(parts, " · "),
		Done:   task.Completed,
	}
}

func groupItem(group domain.Group) Item {
	return Item{
		ID:     group.ID,
		Title:  group.Name,
		Detail: groupDetail(group.TaskCount),
	}
}

func groupDetail(count int) string {
	if count == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", count)
}

// buildContainers projects a board into the group list and task columns (inbox first).
func buildContainers(board domain.Board) (*Container, []*Container) {
	groups := board.SortedGroups()
	list := &Container{ID: GroupListID, Kind: KindGroupList, Title: "Groups", Count: len(groups)}
	columns := make([]*Container, 0, len(groups)+1)

	inbox := &Container{ID: domain.InboxID, Kind: KindTaskColumn, Title: inboxTitle, Count: board.InboxCount}
	for _, task := range board.TasksForGroup(domain.InboxID) {
		inbox.Items = append(inbox.Items, taskItem(task))
	}
	columns = append(columns, inbox)

	for _, group := range groups {
		list.Items = append(list.Items, groupItem(group))
		column := &Container{ID: group.ID, Kind: KindTaskColumn, Title: group.Name, Count: group.TaskCount}
		for _, task := range board.TasksForGroup(group.ID) {
			column.Items = append(column.Items, taskItem(task))
		}
		columns = append(columns, column)
	}
	return list, columns
}
