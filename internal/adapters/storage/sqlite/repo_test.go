package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hylla/fomo/internal/app"
	"github.com/hylla/fomo/internal/domain"
)

func sampleBoard() domain.Board {
	return domain.Board{
		Groups: []domain.Group{
			{ID: "10", Name: "Todo", Color: "#ff0000", Order: 1, TaskCount: 1},
		},
		Tasks: []domain.Task{
			{ID: "1", GroupID: "10", Position: 1, Title: "Buy milk", Priority: domain.PriorityHigh, Repeat: domain.RepeatNone},
			{ID: "2", Position: 1, Title: "Call mom", Priority: domain.PriorityMedium, Repeat: domain.RepeatWeekly, Completed: true},
		},
		InboxCount: 1,
	}
}

func TestRepository_SnapshotRoundTripSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "fomo.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	source := "http://localhost:8000/"
	if _, _, err := repo.LoadSnapshot(ctx, source); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	savedAt := time.Date(2026, 10, 15, 8, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	if err := repo.SaveSnapshot(ctx, source, sampleBoard(), savedAt); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	repo, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	board, at, err := repo.LoadSnapshot(ctx, source)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if !at.Equal(savedAt) || at.Location() != time.UTC {
		t.Fatalf("unexpected saved_at %v", at)
	}
	if len(board.Groups) != 1 || board.Groups[0].Color != "#ff0000" {
		t.Fatalf("unexpected groups %#v", board.Groups)
	}
	if len(board.Tasks) != 2 || !board.Tasks[1].Completed || board.Tasks[1].Repeat != domain.RepeatWeekly {
		t.Fatalf("unexpected tasks %#v", board.Tasks)
	}
	if board.InboxCount != 1 {
		t.Fatalf("unexpected inbox count %d", board.InboxCount)
	}
}

func TestRepository_SnapshotUpsertKeepsOneRowPerSource(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	if err := repo.SaveSnapshot(ctx, "a", sampleBoard(), now); err != nil {
		t.Fatalf("SaveSnapshot(a) error = %v", err)
	}
	if err := repo.SaveSnapshot(ctx, "a", domain.Board{InboxCount: 9}, now.Add(time.Minute)); err != nil {
		t.Fatalf("SaveSnapshot(a) overwrite error = %v", err)
	}
	if err := repo.SaveSnapshot(ctx, "b", sampleBoard(), now); err != nil {
		t.Fatalf("SaveSnapshot(b) error = %v", err)
	}
	if err := repo.SaveSnapshot(ctx, " ", sampleBoard(), now); err == nil {
		t.Fatal("expected empty source to be rejected")
	}

	board, at, err := repo.LoadSnapshot(ctx, "a")
	if err != nil {
		t.Fatalf("LoadSnapshot(a) error = %v", err)
	}
	if board.InboxCount != 9 || len(board.Tasks) != 0 || !at.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected overwritten snapshot, got %#v at %v", board, at)
	}
	board, _, err = repo.LoadSnapshot(ctx, "b")
	if err != nil || len(board.Tasks) != 2 {
		t.Fatalf("expected independent snapshot for b, got %#v err=%v", board, err)
	}

	var rows int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM board_snapshots`).Scan(&rows); err != nil {
		t.Fatalf("count snapshots error = %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 snapshot rows, got %d", rows)
	}
}

func TestRepository_MoveEventsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	base := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	events := []domain.MoveEvent{
		{ID: "e1", SessionID: "s1", Kind: domain.MoveKindTask, ItemID: "1", FromContainer: "10", ToContainer: "11", Position: 1, Outcome: domain.MoveOutcomeApplied, At: base},
		{ID: "e2", Kind: domain.MoveKindGroup, ItemID: "11", FromContainer: "groups", ToContainer: "groups", Position: 2, Outcome: domain.MoveOutcomeApplied, At: base.Add(time.Second)},
		{ID: "e3", Kind: domain.MoveKindTask, ItemID: "2", ToContainer: "10", Position: 3, Outcome: domain.MoveOutcomeReloaded, Reason: "unexpected status: 500", At: base.Add(2 * time.Second)},
	}
	for _, event := range events {
		if err := repo.AppendMoveEvent(ctx, event); err != nil {
			t.Fatalf("AppendMoveEvent(%s) error = %v", event.ID, err)
		}
	}
	if err := repo.AppendMoveEvent(ctx, events[0]); err == nil {
		t.Fatal("expected duplicate event id to fail")
	}

	got, err := repo.ListMoveEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListMoveEvents() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "e3" || got[1].ID != "e2" {
		t.Fatalf("unexpected events %#v", got)
	}
	if got[0].Outcome != domain.MoveOutcomeReloaded || got[0].Reason != "unexpected status: 500" || got[0].FromContainer != "" {
		t.Fatalf("unexpected reloaded event %#v", got[0])
	}
	if got[1].Kind != domain.MoveKindGroup || !got[1].At.Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected group event %#v", got[1])
	}

	all, err := repo.ListMoveEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListMoveEvents(0) error = %v", err)
	}
	if len(all) != 3 || all[2].SessionID != "s1" {
		t.Fatalf("expected default limit to return every event, got %#v", all)
	}
}
