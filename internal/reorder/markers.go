package reorder

// Presentation marker names applied to items and containers during a drag.
const (
	MarkerDragging       = "is-dragging"
	MarkerDragOverTop    = "drag-over-top"
	MarkerDragOverBottom = "drag-over-bottom"
	MarkerTarget         = "is-target"
	MarkerOver           = "is-over"
)

// Markers is the presentation state derived from the drag session. The zero value marks nothing.
// Container ids may be empty (the inbox), so hover and target carry explicit flags.
type Markers struct {
	Dragging  string
	Over      string
	Target    string
	Hovering  bool
	Targeting bool
	// Before is the item that gets the top gutter; Last gets the bottom gutter when appending.
	Before string
	Last   string
	active bool
}

// Active reports whether a drag is in progress.
func (m Markers) Active() bool {
	return m.active
}

// ForItem lists the markers of one item.
func (m Markers) ForItem(itemID string) []string {
	if !m.active || itemID == "" {
		return nil
	}
	var out []string
	if itemID == m.Dragging {
		out = append(out, MarkerDragging)
	}
	if itemID == m.Before {
		out = append(out, MarkerDragOverTop)
	}
	if itemID == m.Last {
		out = append(out, MarkerDragOverBottom)
	}
	return out
}

// ForContainer lists the markers of one container.
func (m Markers) ForContainer(containerID string) []string {
	if !m.active {
		return nil
	}
	var out []string
	if m.Hovering && containerID == m.Over {
		out = append(out, MarkerOver)
	}
	if m.Targeting && containerID == m.Target {
		out = append(out, MarkerTarget)
	}
	return out
}

// Markers derives the current presentation markers.
func (c *Controller) Markers() Markers {
	if c.session == nil {
		return Markers{}
	}
	m := Markers{Dragging: c.session.ItemID, active: true}
	if !c.session.Hovering {
		return m
	}
	m.Over = c.session.HoverID
	m.Hovering = true
	if !c.session.HasTarget {
		return m
	}
	m.Target = c.session.HoverID
	m.Targeting = true
	if c.session.BeforeID != "" {
		m.Before = c.session.BeforeID
		return m
	}
	if target := c.container(c.session.HoverID); target != nil {
		for idx := len(target.Items) - 1; idx >= 0; idx-- {
			if target.Items[idx].ID != c.session.ItemID {
				m.Last = target.Items[idx].ID
				break
			}
		}
	}
	return m
}
