package reorder

// Slot is the vertical extent of one rendered item, in the same units as pointer coordinates.
type Slot struct {
	ItemID string
	Top    float64
	Height float64
}

// Mid returns the vertical midpoint of the slot.
func (s Slot) Mid() float64 {
	return s.Top + s.Height/2
}

// InsertionPoint returns the id of the sibling the dragged item should be inserted before:
// the one with the smallest midpoint at or below pointerY, skipping the dragged item.
// Equal midpoints resolve to the earlier slot. An empty result means append.
func InsertionPoint(slots []Slot, draggedID string, pointerY float64) string {
	best := ""
	bestMid := 0.0
	for _, slot := range slots {
		if slot.ItemID == draggedID {
			continue
		}
		mid := slot.Mid()
		if mid < pointerY {
			continue
		}
		if best == "" || mid < bestMid {
			best = slot.ItemID
			bestMid = mid
		}
	}
	return best
}
