package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hylla/fomo/internal/domain"
	"github.com/hylla/fomo/internal/reorder"
)

// IDGenerator returns unique identifiers for new journal rows.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Logger Logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Service wires the remote board server to the local cache and journal.
type Service struct {
	remote Remote
	repo   Repository
	idGen  IDGenerator
	clock  Clock
	logger Logger
}

// NewService constructs a service. A nil repo disables the cache and the journal.
func NewService(remote Remote, repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	var logger Logger = nopLogger{}
	if cfg.Logger != nil {
		logger = cfg.Logger
	}
	return &Service{
		remote: remote,
		repo:   repo,
		idGen:  idGen,
		clock:  clock,
		logger: logger,
	}
}

// Source returns the remote identity used to key the cache.
func (s *Service) Source() string {
	return s.remote.Source()
}

// LoadBoard fetches the board from the server and refreshes the snapshot cache.
// A failed cache write is logged, not returned.
func (s *Service) LoadBoard(ctx context.Context) (domain.Board, error) {
	board, err := s.remote.LoadBoard(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	if s.repo != nil {
		if err := s.repo.SaveSnapshot(ctx, s.remote.Source(), board, s.clock()); err != nil {
			s.logger.Warn("snapshot cache write failed", "source", s.remote.Source(), "err", err)
		}
	}
	return board, nil
}

// CachedBoard returns the last cached board for this server, if any.
func (s *Service) CachedBoard(ctx context.Context) (domain.Board, time.Time, bool) {
	if s.repo == nil {
		return domain.Board{}, time.Time{}, false
	}
	board, at, err := s.repo.LoadSnapshot(ctx, s.remote.Source())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("snapshot cache read failed", "source", s.remote.Source(), "err", err)
		}
		return domain.Board{}, time.Time{}, false
	}
	return board, at, true
}

// MoveTask implements reorder.Store.
func (s *Service) MoveTask(ctx context.Context, taskID, groupID string, position int) (*domain.Counts, error) {
	if position < 1 {
		return nil, domain.ErrInvalidPosition
	}
	return s.remote.MoveTask(ctx, taskID, groupID, position)
}

// ReorderGroup implements reorder.Store.
func (s *Service) ReorderGroup(ctx context.Context, groupID string, order int) (*domain.Counts, error) {
	if order < 1 {
		return nil, domain.ErrInvalidPosition
	}
	return s.remote.ReorderGroup(ctx, groupID, order)
}

// RecordMove journals the outcome of one persisted move.
func (s *Service) RecordMove(ctx context.Context, result reorder.Result) error {
	if s.repo == nil {
		return nil
	}
	outcome := domain.MoveOutcomeApplied
	reason := ""
	if result.Err != nil {
		outcome = domain.MoveOutcomeReloaded
		reason = result.Err.Error()
	}
	event, err := domain.NewMoveEvent(domain.MoveEvent{
		ID:            s.idGen(),
		SessionID:     result.Move.SessionID,
		Kind:          result.Move.Kind,
		ItemID:        result.Move.ItemID,
		FromContainer: result.Move.FromContainer,
		ToContainer:   result.Move.ToContainer,
		Position:      result.Move.ToPosition,
		Outcome:       outcome,
		Reason:        reason,
		At:            s.clock(),
	})
	if err != nil {
		return fmt.Errorf("build move event: %w", err)
	}
	if err := s.repo.AppendMoveEvent(ctx, event); err != nil {
		return fmt.Errorf("append move event: %w", err)
	}
	s.logger.Debug("move journaled", "item_id", event.ItemID, "outcome", event.Outcome)
	return nil
}

// MoveEvents lists recent journal rows, newest first.
func (s *Service) MoveEvents(ctx context.Context, limit int) ([]domain.MoveEvent, error) {
	if s.repo == nil {
		return nil, ErrCacheDisabled
	}
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	return s.repo.ListMoveEvents(ctx, limit)
}
