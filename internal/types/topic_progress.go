package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TopicProgress struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubtopicID       string         `gorm:"column:subtopic_id;not null;uniqueIndex:idx_subtopic" json:"subtopic_id"`
	IsCompleted      bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	LastAccessedDate *time.Time     `gorm:"column:last_accessed_date" json:"last_accessed_date,omitempty"`
	Notes            *string        `gorm:"column:notes" json:"notes,omitempty"`
	Metadata         datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (TopicProgress) TableName() string { return "topic_progress" }

// IDs are generated app-side so the sqlite driver works without a uuid
// extension.
func (tp *TopicProgress) BeforeCreate(tx *gorm.DB) error {
	if tp.ID == uuid.Nil {
		tp.ID = uuid.New()
	}
	return nil
}
