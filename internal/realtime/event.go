package realtime

import "time"

// ProgressEvent signals that the record for one subtopic changed.
// Consumers re-read the full progress snapshot; the event carries no
// delta beyond identification.
type ProgressEvent struct {
	SubtopicID  string    `json:"subtopic_id"`
	IsCompleted bool      `json:"is_completed"`
	UpdatedAt   time.Time `json:"updated_at"`
}
