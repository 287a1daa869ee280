package types

import (
	"time"
)

// TopicsRoot is the shape of the bundled roadmap manifest. Unknown
// fields in the document are ignored on parse.
type TopicsRoot struct {
	Domain string  `json:"domain"`
	Phases []Phase `json:"phases"`
}

type Phase struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Order  int     `json:"order"`
	Topics []Topic `json:"topics"`
}

type Topic struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Subtopics []Subtopic `json:"subtopics"`
}

// Subtopic is a leaf content unit. ID/Title/Path/Examples are static
// manifest fields. IsCompleted, LastAccessedDate and Notes are overlaid
// from the progress store at projection time and are zero-valued on the
// tree the content source returns.
type Subtopic struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Path     string    `json:"path"`
	Examples []Example `json:"examples"`

	IsCompleted      bool       `json:"is_completed"`
	LastAccessedDate *time.Time `json:"last_accessed_date,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

type Example struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentKey  string `json:"contentKey"`
}
