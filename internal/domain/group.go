package domain

import (
	"strings"
)

// defaultGroupColor matches the server's fallback swatch for new groups.
const defaultGroupColor = "#5c6b7a"

// Group represents one task group (a board column and a sidebar entry).
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Order     int    `json:"order"`
	TaskCount int    `json:"task_count"`
}

// NewGroup constructs a validated group.
func NewGroup(id, name, color string, order int) (Group, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if id == "" {
		return Group{}, ErrInvalidID
	}
	if name == "" {
		return Group{}, ErrInvalidName
	}
	if order < 0 {
		return Group{}, ErrInvalidPosition
	}
	if color == "" {
		color = defaultGroupColor
	}
	return Group{
		ID:    id,
		Name:  name,
		Color: color,
		Order: order,
	}, nil
}

// Rename renames the group.
func (g *Group) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	g.Name = name
	return nil
}

// SetOrder handles set order.
func (g *Group) SetOrder(order int) error {
	if order < 0 {
		return ErrInvalidPosition
	}
	g.Order = order
	return nil
}
