package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/content"
	"github.com/yungbote/roadmap-backend/internal/logger"
	"github.com/yungbote/roadmap-backend/internal/realtime"
	"github.com/yungbote/roadmap-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// fakeProgressRepo is an in-memory TopicProgressRepo keyed by subtopic id.
// onGetAll, when set, runs once after the next GetAll snapshot is taken.
type fakeProgressRepo struct {
	mu       sync.Mutex
	rows     map[string]*types.TopicProgress
	err      error
	onGetAll func()
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: make(map[string]*types.TopicProgress)}
}

func (r *fakeProgressRepo) Get(ctx context.Context, tx *gorm.DB, subtopicID string) (*types.TopicProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	row, ok := r.rows[subtopicID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeProgressRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.TopicProgress, error) {
	r.mu.Lock()
	if r.err != nil {
		r.mu.Unlock()
		return nil, r.err
	}
	out := make([]*types.TopicProgress, 0, len(r.rows))
	for _, row := range r.rows {
		cp := *row
		out = append(out, &cp)
	}
	hook := r.onGetAll
	r.onGetAll = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.TopicProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *row
	r.rows[row.SubtopicID] = &cp
	return nil
}

type staticReader struct {
	manifest string
}

func (r staticReader) ReadByPath(path string) (string, error) {
	return r.manifest, nil
}

const testManifest = `{
  "domain": "android",
  "phases": [
    {"id": "p1", "title": "Phase One", "order": 1, "topics": [
      {"id": "t1", "title": "Topic One", "subtopics": [
        {"id": "s1", "title": "Sub One", "path": "s1.md"},
        {"id": "s2", "title": "Sub Two", "path": "s2.md"}
      ]}
    ]}
  ]
}`

func testTree(t *testing.T) []types.Phase {
	t.Helper()
	svc := content.NewContentService(staticReader{manifest: testManifest}, "topics.json", testLogger(t))
	phases, err := svc.LoadTree(context.Background())
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	return phases
}

func strptr(s string) *string { return &s }

func TestMergePhases_DefaultsWhenNoRecords(t *testing.T) {
	phases := testTree(t)

	merged := mergePhases(phases, nil)

	subs := merged[0].Topics[0].Subtopics
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtopics, got %d", len(subs))
	}
	for _, sub := range subs {
		if sub.IsCompleted {
			t.Fatalf("expected %s incomplete", sub.ID)
		}
		if sub.Notes != nil || sub.LastAccessedDate != nil {
			t.Fatalf("expected nil overlay fields on %s", sub.ID)
		}
	}
}

func TestMergePhases_OverlaysMatchingRecord(t *testing.T) {
	phases := testTree(t)
	now := time.Now().UTC()
	records := []*types.TopicProgress{
		{SubtopicID: "s1", IsCompleted: true, LastAccessedDate: &now, Notes: strptr("review later")},
	}

	merged := mergePhases(phases, records)

	subs := merged[0].Topics[0].Subtopics
	if !subs[0].IsCompleted {
		t.Fatalf("expected s1 completed")
	}
	if subs[0].Notes == nil || *subs[0].Notes != "review later" {
		t.Fatalf("expected s1 notes preserved, got %v", subs[0].Notes)
	}
	if subs[1].IsCompleted || subs[1].Notes != nil {
		t.Fatalf("expected s2 unaffected")
	}
}

func TestMergePhases_PreservesStructureAndOrder(t *testing.T) {
	phases := testTree(t)
	records := []*types.TopicProgress{
		{SubtopicID: "s2", IsCompleted: true},
	}

	merged := mergePhases(phases, records)

	if len(merged) != len(phases) {
		t.Fatalf("phase count changed")
	}
	if merged[0].ID != "p1" || merged[0].Topics[0].ID != "t1" {
		t.Fatalf("structure changed: %+v", merged)
	}
	ids := []string{}
	for _, sub := range merged[0].Topics[0].Subtopics {
		ids = append(ids, sub.ID)
	}
	if ids[0] != "s1" || ids[1] != "s2" {
		t.Fatalf("subtopic order changed: %v", ids)
	}
}

func TestMergePhases_IgnoresUnknownSubtopicIDs(t *testing.T) {
	phases := testTree(t)
	records := []*types.TopicProgress{
		{SubtopicID: "ghost", IsCompleted: true, Notes: strptr("orphan")},
	}

	merged := mergePhases(phases, records)

	count := 0
	for _, phase := range merged {
		for _, topic := range phase.Topics {
			for _, sub := range topic.Subtopics {
				count++
				if sub.ID == "ghost" {
					t.Fatalf("unknown id leaked into projection")
				}
				if sub.IsCompleted {
					t.Fatalf("unknown record affected %s", sub.ID)
				}
			}
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 subtopics, got %d", count)
	}
}

func TestMergePhases_DoesNotMutateSourceTree(t *testing.T) {
	phases := testTree(t)
	records := []*types.TopicProgress{
		{SubtopicID: "s1", IsCompleted: true},
	}

	_ = mergePhases(phases, records)

	if phases[0].Topics[0].Subtopics[0].IsCompleted {
		t.Fatalf("merge mutated the source tree")
	}
}

func TestRoadmapService_PublishesMergedViewOnProgressEvent(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	bus := realtime.NewMemoryBus(log)
	contentSvc := content.NewContentService(staticReader{manifest: testManifest}, "topics.json", log)

	svc := NewRoadmapService(contentSvc, repo, bus, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := svc.Snapshot()
	if snap.Status != RoadmapStatusReady {
		t.Fatalf("expected ready snapshot, got %s", snap.Status)
	}
	if snap.Phases[0].Topics[0].Subtopics[0].IsCompleted {
		t.Fatalf("expected s1 incomplete at start")
	}

	sub, cancelSub := svc.Subscribe()
	defer cancelSub()
	<-sub // current snapshot

	// Write through the store the way the write path does.
	now := time.Now().UTC()
	if err := repo.Upsert(ctx, nil, &types.TopicProgress{SubtopicID: "s1", IsCompleted: true, LastAccessedDate: &now}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := bus.Publish(ctx, realtime.ProgressEvent{SubtopicID: "s1", IsCompleted: true, UpdatedAt: now}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case next := <-sub:
		if next.Status != RoadmapStatusReady {
			t.Fatalf("expected ready, got %s", next.Status)
		}
		if !next.Phases[0].Topics[0].Subtopics[0].IsCompleted {
			t.Fatalf("expected s1 completed in projection")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for recomputation")
	}
}

func TestRoadmapService_SweepsWritesLandedDuringStartup(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	bus := realtime.NewMemoryBus(log)
	contentSvc := content.NewContentService(staticReader{manifest: testManifest}, "topics.json", log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A write that lands after the initial snapshot read but before the
	// bus forwarder attaches: its event reaches nobody.
	repo.onGetAll = func() {
		now := time.Now().UTC()
		if err := repo.Upsert(ctx, nil, &types.TopicProgress{SubtopicID: "s1", IsCompleted: true, LastAccessedDate: &now}); err != nil {
			t.Errorf("Upsert: %v", err)
		}
		if err := bus.Publish(ctx, realtime.ProgressEvent{SubtopicID: "s1", IsCompleted: true, UpdatedAt: now}); err != nil {
			t.Errorf("Publish: %v", err)
		}
	}

	svc := NewRoadmapService(contentSvc, repo, bus, nil, log)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := svc.Snapshot()
	if snap.Status != RoadmapStatusReady {
		t.Fatalf("expected ready, got %s", snap.Status)
	}
	if !snap.Phases[0].Topics[0].Subtopics[0].IsCompleted {
		t.Fatalf("startup write missing from projection")
	}
}

func TestRoadmapService_FailedManifestIsTerminal(t *testing.T) {
	log := testLogger(t)
	repo := newFakeProgressRepo()
	bus := realtime.NewMemoryBus(log)
	contentSvc := content.NewContentService(staticReader{manifest: "{nope"}, "topics.json", log)

	svc := NewRoadmapService(contentSvc, repo, bus, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err == nil {
		t.Fatalf("expected Start to fail on malformed manifest")
	}

	snap := svc.Snapshot()
	if snap.Status != RoadmapStatusFailed {
		t.Fatalf("expected failed snapshot, got %s", snap.Status)
	}
	if snap.Error == "" {
		t.Fatalf("expected error message in snapshot")
	}
	if snap.Phases != nil {
		t.Fatalf("expected no tree in failed snapshot")
	}
}
