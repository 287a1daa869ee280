package services

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/roadmap-backend/internal/content"
	"github.com/yungbote/roadmap-backend/internal/logger"
	"github.com/yungbote/roadmap-backend/internal/realtime"
	"github.com/yungbote/roadmap-backend/internal/repos"
	"github.com/yungbote/roadmap-backend/internal/sse"
	"github.com/yungbote/roadmap-backend/internal/types"
)

type RoadmapStatus string

const (
	RoadmapStatusLoading RoadmapStatus = "loading"
	RoadmapStatusReady   RoadmapStatus = "ready"
	RoadmapStatusFailed  RoadmapStatus = "failed"
)

// RoadmapSnapshot is the projector's output boundary: the merged tree
// when ready, the load error when the manifest could not be read.
type RoadmapSnapshot struct {
	Status RoadmapStatus `json:"status"`
	Phases []types.Phase `json:"phases,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type RoadmapService interface {
	Start(ctx context.Context) error
	Snapshot() RoadmapSnapshot
	Subscribe() (<-chan RoadmapSnapshot, func())
}

// roadmapService keeps a continuously-current merged view of the static
// tree and the latest progress snapshot. The tree is loaded once; every
// bus event triggers a full recompute from the store.
type roadmapService struct {
	contentSvc *content.ContentService
	repo       repos.TopicProgressRepo
	bus        realtime.Bus
	hub        *sse.SSEHub
	log        *logger.Logger

	tree []types.Phase

	// recomputeMu serializes recomputation so overlapping bus events
	// never merge against a stale snapshot.
	recomputeMu sync.Mutex

	mu      sync.RWMutex
	current RoadmapSnapshot
	subs    map[chan RoadmapSnapshot]bool
}

func NewRoadmapService(contentSvc *content.ContentService, repo repos.TopicProgressRepo, bus realtime.Bus, hub *sse.SSEHub, baseLog *logger.Logger) RoadmapService {
	return &roadmapService{
		contentSvc: contentSvc,
		repo:       repo,
		bus:        bus,
		hub:        hub,
		log:        baseLog.With("service", "RoadmapService"),
		current:    RoadmapSnapshot{Status: RoadmapStatusLoading},
		subs:       make(map[chan RoadmapSnapshot]bool),
	}
}

// Start loads the tree and the initial progress snapshot, publishes the
// first projection and begins observing the bus. A manifest failure is
// terminal: the Failed snapshot is published and no recomputation is
// scheduled; retry is the caller's decision via a fresh process.
func (s *roadmapService) Start(ctx context.Context) error {
	var (
		phases  []types.Phase
		records []*types.TopicProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.contentSvc.LoadTree(gctx)
		if err != nil {
			return err
		}
		phases = p
		return nil
	})
	g.Go(func() error {
		r, err := s.repo.GetAll(gctx, nil)
		if err != nil {
			return err
		}
		records = r
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Roadmap projection failed to start", "error", err)
		s.publish(RoadmapSnapshot{Status: RoadmapStatusFailed, Error: err.Error()})
		return err
	}

	s.tree = phases
	s.publish(RoadmapSnapshot{Status: RoadmapStatusReady, Phases: mergePhases(phases, records)})

	if err := s.bus.StartForwarder(ctx, func(ev realtime.ProgressEvent) {
		s.recompute(ctx)
		if s.hub != nil {
			s.hub.Broadcast(sse.SSEMessage{
				Channel: sse.SubtopicChannel(ev.SubtopicID),
				Event:   sse.SSEEventTopicProgressUpdated,
				Data:    ev,
			})
		}
	}); err != nil {
		return err
	}

	// A write between the initial GetAll and the forwarder attaching
	// publishes to a bus nobody observes yet; one recompute sweeps it up.
	s.recompute(ctx)
	return nil
}

func (s *roadmapService) recompute(ctx context.Context) {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	records, err := s.repo.GetAll(ctx, nil)
	if err != nil {
		// Keep the last good projection; the next event re-reads.
		s.log.Error("Failed to read progress snapshot", "error", err)
		return
	}
	s.publish(RoadmapSnapshot{Status: RoadmapStatusReady, Phases: mergePhases(s.tree, records)})
}

func (s *roadmapService) publish(snap RoadmapSnapshot) {
	s.mu.Lock()
	s.current = snap
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber lags: replace the stale pending snapshot.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	s.mu.Unlock()

	if s.hub != nil {
		event := sse.SSEEventRoadmapUpdated
		s.hub.Broadcast(sse.SSEMessage{Channel: sse.ChannelRoadmap, Event: event, Data: snap})
	}
}

func (s *roadmapService) Snapshot() RoadmapSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe returns a channel carrying every future projection plus the
// current one. Cancel detaches this subscriber only.
func (s *roadmapService) Subscribe() (<-chan RoadmapSnapshot, func()) {
	ch := make(chan RoadmapSnapshot, 1)

	s.mu.Lock()
	s.subs[ch] = true
	ch <- s.current
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}

// mergePhases overlays the latest progress records onto a copy of the
// static tree. Structure and order are preserved; records whose id has
// no matching subtopic are skipped.
func mergePhases(phases []types.Phase, records []*types.TopicProgress) []types.Phase {
	byID := make(map[string]*types.TopicProgress, len(records))
	for _, rec := range records {
		if rec != nil {
			byID[rec.SubtopicID] = rec
		}
	}

	out := make([]types.Phase, len(phases))
	for i, phase := range phases {
		topics := make([]types.Topic, len(phase.Topics))
		for j, topic := range phase.Topics {
			subs := make([]types.Subtopic, len(topic.Subtopics))
			for k, sub := range topic.Subtopics {
				if rec, ok := byID[sub.ID]; ok {
					sub.IsCompleted = rec.IsCompleted
					sub.LastAccessedDate = rec.LastAccessedDate
					sub.Notes = rec.Notes
				} else {
					sub.IsCompleted = false
					sub.LastAccessedDate = nil
					sub.Notes = nil
				}
				subs[k] = sub
			}
			topic.Subtopics = subs
			topics[j] = topic
		}
		phase.Topics = topics
		out[i] = phase
	}
	return out
}
