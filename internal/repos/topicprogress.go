package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/yungbote/roadmap-backend/internal/logger"
  "github.com/yungbote/roadmap-backend/internal/types"
)

type TopicProgressRepo interface {
  Get(ctx context.Context, tx *gorm.DB, subtopicID string) (*types.TopicProgress, error)
  GetAll(ctx context.Context, tx *gorm.DB) ([]*types.TopicProgress, error)
  Upsert(ctx context.Context, tx *gorm.DB, row *types.TopicProgress) error
}

type topicProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTopicProgressRepo(db *gorm.DB, baseLog *logger.Logger) TopicProgressRepo {
  repoLog := baseLog.With("repo", "TopicProgressRepo")
  return &topicProgressRepo{db: db, log: repoLog}
}

func (r *topicProgressRepo) Get(ctx context.Context, tx *gorm.DB, subtopicID string) (*types.TopicProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if subtopicID == "" {
    return nil, nil
  }

  var result types.TopicProgress
  err := transaction.WithContext(ctx).
    Where("subtopic_id = ?", subtopicID).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (r *topicProgressRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.TopicProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.TopicProgress
  if err := transaction.WithContext(ctx).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *topicProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.TopicProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  // Upsert by unique subtopic_id; full replace, no partial-field merge.
  if err := transaction.WithContext(ctx).
    Where("subtopic_id = ?", row.SubtopicID).
    Assign(map[string]interface{}{
      "is_completed":       row.IsCompleted,
      "last_accessed_date": row.LastAccessedDate,
      "notes":              row.Notes,
      "metadata":           row.Metadata,
    }).
    FirstOrCreate(row).Error; err != nil {
    return err
  }
  return nil
}
