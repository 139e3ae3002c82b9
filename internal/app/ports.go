package app

import (
	"context"
	"time"

	"github.com/hylla/fomo/internal/domain"
)

// Remote represents the board server.
type Remote interface {
	Source() string
	LoadBoard(context.Context) (domain.Board, error)
	MoveTask(ctx context.Context, taskID, groupID string, position int) (*domain.Counts, error)
	ReorderGroup(ctx context.Context, groupID string, order int) (*domain.Counts, error)
}

// Repository represents the local snapshot cache and move journal.
type Repository interface {
	SaveSnapshot(ctx context.Context, source string, board domain.Board, at time.Time) error
	LoadSnapshot(ctx context.Context, source string) (domain.Board, time.Time, error)
	AppendMoveEvent(context.Context, domain.MoveEvent) error
	ListMoveEvents(context.Context, int) ([]domain.MoveEvent, error)
}

// Logger is the logging surface used by the service.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}
