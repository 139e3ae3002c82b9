package domain

import (
	"slices"
	"strings"
)

// InboxID is the container id of tasks without a group.
const InboxID = ""

// Board is one server projection of the dashboard: groups, tasks, and the inbox total.
type Board struct {
	Groups     []Group `json:"groups"`
	Tasks      []Task  `json:"tasks"`
	InboxCount int     `json:"inbox_count"`
}

// Counts carries per-container task totals as acknowledged by the server.
type Counts struct {
	Groups map[string]int `json:"groups"`
	Inbox  int            `json:"inbox_count"`
	// HasInbox is false when the server acknowledged a move without an inbox total.
	HasInbox bool `json:"-"`
}

// For returns the count for one container id, and whether the server reported it.
func (c Counts) For(containerID string) (int, bool) {
	if containerID == InboxID {
		return c.Inbox, c.HasInbox
	}
	n, ok := c.Groups[containerID]
	return n, ok
}

// SortedGroups returns groups ordered by (order, name).
func (b Board) SortedGroups() []Group {
	out := append([]Group(nil), b.Groups...)
	slices.SortStableFunc(out, func(a, c Group) int {
		if a.Order != c.Order {
			return a.Order - c.Order
		}
		return strings.Compare(a.Name, c.Name)
	})
	return out
}

// TasksForGroup returns tasks in one group ordered by position; the empty id selects the inbox.
func (b Board) TasksForGroup(groupID string) []Task {
	out := make([]Task, 0)
	for _, task := range b.Tasks {
		if task.GroupID == groupID {
			out = append(out, task)
		}
	}
	slices.SortStableFunc(out, func(a, c Task) int {
		return a.Position - c.Position
	})
	return out
}

// GroupByID finds one group.
func (b Board) GroupByID(id string) (Group, bool) {
	for _, group := range b.Groups {
		if group.ID == id {
			return group, true
		}
	}
	return Group{}, false
}

// Counts derives container counts from the board payload.
func (b Board) Counts() Counts {
	counts := Counts{Groups: make(map[string]int, len(b.Groups)), Inbox: b.InboxCount, HasInbox: true}
	for _, group := range b.Groups {
		counts.Groups[group.ID] = group.TaskCount
	}
	return counts
}

// Clone deep-copies the board.
func (b Board) Clone() Board {
	return Board{
		Groups:     append([]Group(nil), b.Groups...),
		Tasks:      append([]Task(nil), b.Tasks...),
		InboxCount: b.InboxCount,
	}
}
