package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/roadmap-backend/internal/realtime"
	"github.com/yungbote/roadmap-backend/internal/types"
)

func TestToggleCompletion_CreatesRecordWithDefaults(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	svc := NewProgressService(nil, log, repo, realtime.NewMemoryBus(log))

	row, err := svc.ToggleCompletion(context.Background(), "s1", true, nil)
	if err != nil {
		t.Fatalf("ToggleCompletion: %v", err)
	}
	if !row.IsCompleted {
		t.Fatalf("expected completed record")
	}
	if row.LastAccessedDate == nil {
		t.Fatalf("expected timestamp on first write")
	}
	if row.Notes != nil {
		t.Fatalf("expected nil notes on first write")
	}
}

func TestToggleCompletion_PreservesNotes(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	svc := NewProgressService(nil, log, repo, realtime.NewMemoryBus(log))

	t1 := time.Now().UTC().Add(-time.Hour)
	seed := &types.TopicProgress{
		SubtopicID:       "s1",
		IsCompleted:      false,
		LastAccessedDate: &t1,
		Notes:            strptr("review later"),
	}
	if err := repo.Upsert(context.Background(), nil, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	row, err := svc.ToggleCompletion(context.Background(), "s1", true, nil)
	if err != nil {
		t.Fatalf("ToggleCompletion: %v", err)
	}
	if !row.IsCompleted {
		t.Fatalf("expected completed")
	}
	if row.Notes == nil || *row.Notes != "review later" {
		t.Fatalf("expected notes preserved, got %v", row.Notes)
	}
	if row.LastAccessedDate == nil || !row.LastAccessedDate.After(t1) {
		t.Fatalf("expected refreshed timestamp")
	}

	stored, err := repo.Get(context.Background(), nil, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Notes == nil || *stored.Notes != "review later" {
		t.Fatalf("expected persisted notes, got %v", stored.Notes)
	}
}

func TestToggleCompletion_BackToIncompleteKeepsNotes(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	svc := NewProgressService(nil, log, repo, realtime.NewMemoryBus(log))

	if _, err := svc.UpdateNotes(context.Background(), "s1", strptr("review later"), nil); err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}
	if _, err := svc.ToggleCompletion(context.Background(), "s1", true, nil); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	row, err := svc.ToggleCompletion(context.Background(), "s1", false, nil)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if row.IsCompleted {
		t.Fatalf("expected incomplete")
	}
	if row.Notes == nil || *row.Notes != "review later" {
		t.Fatalf("expected notes to survive both toggles, got %v", row.Notes)
	}
}

func TestUpdateNotes_PreservesCompletionFlag(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	svc := NewProgressService(nil, log, repo, realtime.NewMemoryBus(log))

	if _, err := svc.ToggleCompletion(context.Background(), "s1", true, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	row, err := svc.UpdateNotes(context.Background(), "s1", strptr("new notes"), nil)
	if err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}
	if !row.IsCompleted {
		t.Fatalf("expected completion flag carried forward")
	}
	if row.Notes == nil || *row.Notes != "new notes" {
		t.Fatalf("expected new notes, got %v", row.Notes)
	}
}

func TestToggleCompletion_CarriesMetadataForward(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	svc := NewProgressService(nil, log, repo, realtime.NewMemoryBus(log))

	meta := datatypes.JSON(`{"example_id": "e1"}`)
	if _, err := svc.ToggleCompletion(context.Background(), "s1", true, meta); err != nil {
		t.Fatalf("toggle with metadata: %v", err)
	}

	row, err := svc.ToggleCompletion(context.Background(), "s1", false, nil)
	if err != nil {
		t.Fatalf("toggle without metadata: %v", err)
	}
	if string(row.Metadata) != string(meta) {
		t.Fatalf("expected metadata carried forward, got %s", row.Metadata)
	}
}

func TestUpdateNotes_ReplacesMetadataWhenProvided(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	svc := NewProgressService(nil, log, repo, realtime.NewMemoryBus(log))

	if _, err := svc.ToggleCompletion(context.Background(), "s1", true, datatypes.JSON(`{"example_id": "e1"}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	next := datatypes.JSON(`{"example_id": "e2", "opened": 2}`)
	row, err := svc.UpdateNotes(context.Background(), "s1", strptr("new notes"), next)
	if err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}
	if string(row.Metadata) != string(next) {
		t.Fatalf("expected metadata replaced, got %s", row.Metadata)
	}
	if !row.IsCompleted {
		t.Fatalf("expected completion flag carried forward")
	}
}

func TestToggleCompletion_RequiresSubtopicID(t *testing.T) {
	log := testLogger(t)
	svc := NewProgressService(nil, log, newFakeProgressRepo(), realtime.NewMemoryBus(log))

	if _, err := svc.ToggleCompletion(context.Background(), "", true, nil); err == nil {
		t.Fatalf("expected error for empty subtopic id")
	}
}

func TestToggleCompletion_PublishesProgressEvent(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	bus := realtime.NewMemoryBus(log)
	svc := NewProgressService(nil, log, repo, bus)

	got := make(chan realtime.ProgressEvent, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := bus.StartForwarder(ctx, func(ev realtime.ProgressEvent) {
		got <- ev
	}); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}

	if _, err := svc.ToggleCompletion(ctx, "s1", true, nil); err != nil {
		t.Fatalf("ToggleCompletion: %v", err)
	}

	select {
	case ev := <-got:
		if ev.SubtopicID != "s1" || !ev.IsCompleted {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for progress event")
	}
}
