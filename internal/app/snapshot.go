package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hylla/fomo/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "fomo.board.v1"

// Snapshot is the portable json export of one board.
type Snapshot struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Source     string          `json:"source"`
	Cached     bool            `json:"cached,omitempty"`
	Groups     []SnapshotGroup `json:"groups"`
	Tasks      []SnapshotTask  `json:"tasks"`
	InboxCount int             `json:"inbox_count"`
}

// SnapshotGroup represents snapshot group data used by this package.
type SnapshotGroup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Order     int    `json:"order"`
	TaskCount int    `json:"task_count"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID        string                 `json:"id"`
	GroupID   string                 `json:"group_id"`
	Position  int                    `json:"position"`
	Title     string                 `json:"title"`
	Priority  domain.Priority        `json:"priority"`
	Repeat    domain.RepeatFrequency `json:"repeat,omitempty"`
	Completed bool                   `json:"completed"`
}

// ExportSnapshot exports the live board, or the cached one when offline is set.
func (s *Service) ExportSnapshot(ctx context.Context, offline bool) (Snapshot, error) {
	var (
		board  domain.Board
		cached bool
	)
	if offline {
		cachedBoard, _, ok := s.CachedBoard(ctx)
		if !ok {
			return Snapshot{}, fmt.Errorf("cached board: %w", ErrNotFound)
		}
		board = cachedBoard
		cached = true
	} else {
		live, err := s.LoadBoard(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		board = live
	}
	snap := SnapshotFromBoard(board, s.remote.Source(), s.clock())
	snap.Cached = cached
	return snap, nil
}

// SnapshotFromBoard builds a sorted snapshot from a board.
func SnapshotFromBoard(board domain.Board, source string, at time.Time) Snapshot {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: at.UTC(),
		Source:     source,
		Groups:     make([]SnapshotGroup, 0, len(board.Groups)),
		Tasks:      make([]SnapshotTask, 0, len(board.Tasks)),
		InboxCount: board.InboxCount,
	}
	for _, group := range board.Groups {
		snap.Groups = append(snap.Groups, SnapshotGroup(group))
	}
	for _, task := range board.Tasks {
		snap.Tasks = append(snap.Tasks, SnapshotTask(task))
	}
	snap.sort()
	return snap
}

// Board converts the snapshot back into a domain board.
func (s Snapshot) Board() domain.Board {
	board := domain.Board{
		Groups:     make([]domain.Group, 0, len(s.Groups)),
		Tasks:      make([]domain.Task, 0, len(s.Tasks)),
		InboxCount: s.InboxCount,
	}
	for _, group := range s.Groups {
		board.Groups = append(board.Groups, domain.Group(group))
	}
	for _, task := range s.Tasks {
		board.Tasks = append(board.Tasks, domain.Task(task))
	}
	return board
}

// Validate checks version, id uniqueness, group references, and per-group positions.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.Version) != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %q", s.Version)
	}
	groups := make(map[string]struct{}, len(s.Groups))
	for _, group := range s.Groups {
		id := strings.TrimSpace(group.ID)
		if id == "" {
			return errors.New("snapshot group id is required")
		}
		if _, ok := groups[id]; ok {
			return fmt.Errorf("duplicate snapshot group id %q", id)
		}
		groups[id] = struct{}{}
	}
	tasks := make(map[string]struct{}, len(s.Tasks))
	positions := map[string]map[int]struct{}{}
	for _, task := range s.Tasks {
		id := strings.TrimSpace(task.ID)
		if id == "" {
			return errors.New("snapshot task id is required")
		}
		if _, ok := tasks[id]; ok {
			return fmt.Errorf("duplicate snapshot task id %q", id)
		}
		tasks[id] = struct{}{}
		if task.GroupID != domain.InboxID {
			if _, ok := groups[task.GroupID]; !ok {
				return fmt.Errorf("snapshot task %q references unknown group %q", id, task.GroupID)
			}
		}
		if task.Position < 1 {
			return fmt.Errorf("snapshot task %q: %w", id, domain.ErrInvalidPosition)
		}
		seen := positions[task.GroupID]
		if seen == nil {
			seen = map[int]struct{}{}
			positions[task.GroupID] = seen
		}
		if _, ok := seen[task.Position]; ok {
			return fmt.Errorf("snapshot task %q repeats position %d in group %q", id, task.Position, task.GroupID)
		}
		seen[task.Position] = struct{}{}
	}
	return nil
}

// sort orders groups by (order, id) and tasks by (group, position, id).
func (s *Snapshot) sort() {
	sort.SliceStable(s.Groups, func(i, j int) bool {
		if s.Groups[i].Order != s.Groups[j].Order {
			return s.Groups[i].Order < s.Groups[j].Order
		}
		return s.Groups[i].ID < s.Groups[j].ID
	})
	sort.SliceStable(s.Tasks, func(i, j int) bool {
		a, b := s.Tasks[i], s.Tasks[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}
