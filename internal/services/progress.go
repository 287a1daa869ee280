package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/logger"
	"github.com/yungbote/roadmap-backend/internal/realtime"
	"github.com/yungbote/roadmap-backend/internal/repos"
	"github.com/yungbote/roadmap-backend/internal/types"
)

type ProgressService interface {
	ToggleCompletion(ctx context.Context, subtopicID string, isCompleted bool, metadata datatypes.JSON) (*types.TopicProgress, error)
	UpdateNotes(ctx context.Context, subtopicID string, notes *string, metadata datatypes.JSON) (*types.TopicProgress, error)
	ListProgress(ctx context.Context) ([]*types.TopicProgress, error)
}

type progressService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.TopicProgressRepo
	bus  realtime.Bus
}

func NewProgressService(db *gorm.DB, baseLog *logger.Logger, repo repos.TopicProgressRepo, bus realtime.Bus) ProgressService {
	return &progressService{
		db:   db,
		log:  baseLog.With("service", "ProgressService"),
		repo: repo,
		bus:  bus,
	}
}

// ToggleCompletion writes a full replacement record. The current record
// is read from the store first so notes and metadata survive a pure
// completion toggle, including one issued before any observer has seen
// a projection. A non-empty metadata payload replaces the stored one.
func (s *progressService) ToggleCompletion(ctx context.Context, subtopicID string, isCompleted bool, metadata datatypes.JSON) (*types.TopicProgress, error) {
	if subtopicID == "" {
		return nil, fmt.Errorf("subtopic id required")
	}

	current, err := s.repo.Get(ctx, nil, subtopicID)
	if err != nil {
		return nil, fmt.Errorf("read current progress: %w", err)
	}

	now := time.Now().UTC()
	row := &types.TopicProgress{
		SubtopicID:       subtopicID,
		IsCompleted:      isCompleted,
		LastAccessedDate: &now,
		Metadata:         metadata,
	}
	if current != nil {
		row.Notes = current.Notes
		if len(metadata) == 0 {
			row.Metadata = current.Metadata
		}
	}

	if err := s.repo.Upsert(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	s.notify(ctx, row)
	return row, nil
}

// UpdateNotes replaces the notes field, carrying the completion flag
// forward the same way the toggle carries notes.
func (s *progressService) UpdateNotes(ctx context.Context, subtopicID string, notes *string, metadata datatypes.JSON) (*types.TopicProgress, error) {
	if subtopicID == "" {
		return nil, fmt.Errorf("subtopic id required")
	}

	current, err := s.repo.Get(ctx, nil, subtopicID)
	if err != nil {
		return nil, fmt.Errorf("read current progress: %w", err)
	}

	now := time.Now().UTC()
	row := &types.TopicProgress{
		SubtopicID:       subtopicID,
		Notes:            notes,
		LastAccessedDate: &now,
		Metadata:         metadata,
	}
	if current != nil {
		row.IsCompleted = current.IsCompleted
		if len(metadata) == 0 {
			row.Metadata = current.Metadata
		}
	}

	if err := s.repo.Upsert(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	s.notify(ctx, row)
	return row, nil
}

func (s *progressService) ListProgress(ctx context.Context) ([]*types.TopicProgress, error) {
	return s.repo.GetAll(ctx, nil)
}

func (s *progressService) notify(ctx context.Context, row *types.TopicProgress) {
	ev := realtime.ProgressEvent{
		SubtopicID:  row.SubtopicID,
		IsCompleted: row.IsCompleted,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("Failed to publish progress event", "subtopic_id", row.SubtopicID, "error", err)
	}
}
