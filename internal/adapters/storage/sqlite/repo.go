package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/fomo/internal/app"
	"github.com/hylla/fomo/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores board snapshots and the move journal.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the cache database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS board_snapshots (
			source TEXT PRIMARY KEY,
			payload_json TEXT NOT NULL,
			group_count INTEGER NOT NULL DEFAULT 0,
			task_count INTEGER NOT NULL DEFAULT 0,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS move_events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			item_id TEXT NOT NULL,
			from_container TEXT NOT NULL DEFAULT '',
			to_container TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_move_events_created_at ON move_events(created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// SaveSnapshot replaces the cached board for one server source.
func (r *Repository) SaveSnapshot(ctx context.Context, source string, board domain.Board, at time.Time) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return errors.New("snapshot source is required")
	}
	payload, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("encode board snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO board_snapshots(source, payload_json, group_count, task_count, saved_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			payload_json = excluded.payload_json,
			group_count = excluded.group_count,
			task_count = excluded.task_count,
			saved_at = excluded.saved_at
	`, source, string(payload), len(board.Groups), len(board.Tasks), ts(at))
	return err
}

// LoadSnapshot returns the cached board for one source and when it was saved.
func (r *Repository) LoadSnapshot(ctx context.Context, source string) (domain.Board, time.Time, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT payload_json, saved_at
		FROM board_snapshots
		WHERE source = ?
	`, strings.TrimSpace(source))
	var (
		payload  string
		savedRaw string
	)
	if err := row.Scan(&payload, &savedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, time.Time{}, app.ErrNotFound
		}
		return domain.Board{}, time.Time{}, err
	}
	var board domain.Board
	if err := json.Unmarshal([]byte(payload), &board); err != nil {
		return domain.Board{}, time.Time{}, fmt.Errorf("decode board_snapshots.payload_json: %w", err)
	}
	return board, parseTS(savedRaw), nil
}

// AppendMoveEvent inserts one journal row.
func (r *Repository) AppendMoveEvent(ctx context.Context, event domain.MoveEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO move_events(id, session_id, kind, item_id, from_container, to_container, position, outcome, reason, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.SessionID,
		string(event.Kind),
		event.ItemID,
		event.FromContainer,
		event.ToContainer,
		event.Position,
		string(event.Outcome),
		event.Reason,
		ts(event.At),
	)
	return err
}

// ListMoveEvents returns the newest journal rows first.
func (r *Repository) ListMoveEvents(ctx context.Context, limit int) ([]domain.MoveEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, kind, item_id, from_container, to_container, position, outcome, reason, created_at
		FROM move_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MoveEvent, 0)
	for rows.Next() {
		event, err := scanMoveEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanMoveEvent handles scan move event.
func scanMoveEvent(s scanner) (domain.MoveEvent, error) {
	var (
		event      domain.MoveEvent
		kindRaw    string
		outcomeRaw string
		createdRaw string
	)
	if err := s.Scan(
		&event.ID,
		&event.SessionID,
		&kindRaw,
		&event.ItemID,
		&event.FromContainer,
		&event.ToContainer,
		&event.Position,
		&outcomeRaw,
		&event.Reason,
		&createdRaw,
	); err != nil {
		return domain.MoveEvent{}, err
	}
	event.Kind = domain.MoveKind(kindRaw)
	event.Outcome = domain.MoveOutcome(outcomeRaw)
	event.At = parseTS(createdRaw)
	return event, nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
