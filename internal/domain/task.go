package domain

import (
	"slices"
	"strings"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

type RepeatFrequency string

const (
	RepeatNone    RepeatFrequency = "none"
	RepeatDaily   RepeatFrequency = "daily"
	RepeatWeekly  RepeatFrequency = "weekly"
	RepeatMonthly RepeatFrequency = "monthly"
)

var validRepeatFrequencies = []RepeatFrequency{RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly}

// Task is one server-rendered task. An empty GroupID places it in the inbox.
type Task struct {
	ID        string          `json:"id"`
	GroupID   string          `json:"group_id,omitempty"`
	Position  int             `json:"position"`
	Title     string          `json:"title"`
	Priority  Priority        `json:"priority"`
	Repeat    RepeatFrequency `json:"repeat,omitempty"`
	Completed bool            `json:"completed,omitempty"`
}

type TaskInput struct {
	ID        string
	GroupID   string
	Position  int
	Title     string
	Priority  Priority
	Repeat    RepeatFrequency
	Completed bool
}

func NewTask(in TaskInput) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.GroupID = strings.TrimSpace(in.GroupID)
	in.Title = strings.TrimSpace(in.Title)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Task{}, ErrInvalidPosition
	}

	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Task{}, ErrInvalidPriority
	}
	if in.Repeat == "" {
		in.Repeat = RepeatNone
	}
	if !slices.Contains(validRepeatFrequencies, in.Repeat) {
		return Task{}, ErrInvalidRepeat
	}

	return Task{
		ID:        in.ID,
		GroupID:   in.GroupID,
		Position:  in.Position,
		Title:     in.Title,
		Priority:  in.Priority,
		Repeat:    in.Repeat,
		Completed: in.Completed,
	}, nil
}

// Move places the task in a group at a 1-based position. An empty group id means the inbox.
func (t *Task) Move(groupID string, position int) error {
	if position < 1 {
		return ErrInvalidPosition
	}
	t.GroupID = strings.TrimSpace(groupID)
	t.Position = position
	return nil
}

// Repeats reports whether completing the task spawns a follow-up occurrence server-side.
func (t Task) Repeats() bool {
	return t.Repeat != "" && t.Repeat != RepeatNone
}

// ParsePriority maps loose input onto a known priority, defaulting to medium.
func ParsePriority(raw string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(validPriorities, p) {
		return p
	}
	return PriorityMedium
}

// ParseRepeatFrequency maps loose input onto a known frequency, defaulting to none.
func ParseRepeatFrequency(raw string) RepeatFrequency {
	r := RepeatFrequency(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(validRepeatFrequencies, r) {
		return r
	}
	return RepeatNone
}
