package domain

import (
	"strings"
	"time"
)

// MoveKind identifies what a reorder moved.
type MoveKind string

const (
	MoveKindTask  MoveKind = "task"
	MoveKindGroup MoveKind = "group"
)

// MoveOutcome records how a persisted move was resolved.
type MoveOutcome string

const (
	// MoveOutcomeApplied means the server acknowledged the move.
	MoveOutcomeApplied MoveOutcome = "applied"
	// MoveOutcomeReloaded means the move failed and the view was resynced from the server.
	MoveOutcomeReloaded MoveOutcome = "reloaded"
)

// MoveEvent is one journal row for a persisted reorder.
type MoveEvent struct {
	ID            string
	SessionID     string
	Kind          MoveKind
	ItemID        string
	FromContainer string
	ToContainer   string
	Position      int
	Outcome       MoveOutcome
	Reason        string
	At            time.Time
}

// NewMoveEvent validates and normalizes one journal row.
func NewMoveEvent(in MoveEvent) (MoveEvent, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.Reason = strings.TrimSpace(in.Reason)
	if in.ID == "" || in.ItemID == "" {
		return MoveEvent{}, ErrInvalidID
	}
	switch in.Kind {
	case MoveKindTask, MoveKindGroup:
	default:
		return MoveEvent{}, ErrInvalidKind
	}
	switch in.Outcome {
	case MoveOutcomeApplied, MoveOutcomeReloaded:
	default:
		return MoveEvent{}, ErrInvalidOutcome
	}
	if in.Position < 1 {
		return MoveEvent{}, ErrInvalidPosition
	}
	in.At = in.At.UTC()
	return in, nil
}
