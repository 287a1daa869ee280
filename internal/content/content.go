package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/yungbote/roadmap-backend/internal/logger"
	"github.com/yungbote/roadmap-backend/internal/types"
)

// ErrContentNotFound is returned when a subtopic id is unknown to the
// tree or its content reference cannot be read.
var ErrContentNotFound = errors.New("content not found")

// ContentLoadError means the manifest is missing or malformed. There is
// no partial-success mode: either the whole tree parses or the load fails.
type ContentLoadError struct {
	Path string
	Err  error
}

func (e *ContentLoadError) Error() string {
	return fmt.Sprintf("load roadmap manifest %s: %v", e.Path, e.Err)
}

func (e *ContentLoadError) Unwrap() error { return e.Err }

// ContentService loads the immutable roadmap tree from the bundled
// manifest once per process and resolves subtopic bodies through the
// reader. The tree cache and the id index are written once under the
// load mutex and immutable afterwards.
type ContentService struct {
	reader       ContentReader
	manifestPath string
	log          *logger.Logger

	loadOnce sync.Once
	loadErr  error
	phases   []types.Phase
	index    map[string]types.Subtopic

	bodyMu sync.Mutex
	bodies map[string]string
}

func NewContentService(reader ContentReader, manifestPath string, baseLog *logger.Logger) *ContentService {
	return &ContentService{
		reader:       reader,
		manifestPath: manifestPath,
		log:          baseLog.With("service", "ContentService"),
		bodies:       make(map[string]string),
	}
}

func (s *ContentService) LoadTree(ctx context.Context) ([]types.Phase, error) {
	s.loadOnce.Do(func() {
		raw, err := s.reader.ReadByPath(s.manifestPath)
		if err != nil {
			s.loadErr = &ContentLoadError{Path: s.manifestPath, Err: err}
			s.log.Error("Failed to read roadmap manifest", "path", s.manifestPath, "error", err)
			return
		}
		var root types.TopicsRoot
		if err := json.Unmarshal([]byte(raw), &root); err != nil {
			s.loadErr = &ContentLoadError{Path: s.manifestPath, Err: err}
			s.log.Error("Failed to parse roadmap manifest", "path", s.manifestPath, "error", err)
			return
		}
		index := make(map[string]types.Subtopic)
		for _, phase := range root.Phases {
			for _, topic := range phase.Topics {
				for _, sub := range topic.Subtopics {
					index[sub.ID] = sub
				}
			}
		}
		s.phases = root.Phases
		s.index = index
		s.log.Info("Roadmap manifest loaded", "domain", root.Domain, "phases", len(root.Phases), "subtopics", len(index))
	})
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.phases, nil
}

// Subtopic looks up a leaf by id, loading the tree first if needed.
func (s *ContentService) Subtopic(ctx context.Context, subtopicID string) (types.Subtopic, error) {
	if _, err := s.LoadTree(ctx); err != nil {
		return types.Subtopic{}, err
	}
	sub, ok := s.index[subtopicID]
	if !ok {
		return types.Subtopic{}, fmt.Errorf("%w: unknown subtopic %q", ErrContentNotFound, subtopicID)
	}
	return sub, nil
}

func (s *ContentService) ReadContent(ctx context.Context, subtopicID string) (string, error) {
	sub, err := s.Subtopic(ctx, subtopicID)
	if err != nil {
		return "", err
	}
	if sub.Path == "" {
		return "", fmt.Errorf("%w: subtopic %q has no content path", ErrContentNotFound, subtopicID)
	}

	s.bodyMu.Lock()
	body, ok := s.bodies[subtopicID]
	s.bodyMu.Unlock()
	if ok {
		return body, nil
	}

	body, err = s.reader.ReadByPath(sub.Path)
	if err != nil {
		s.log.Warn("Failed to read subtopic content", "subtopic_id", subtopicID, "path", sub.Path, "error", err)
		return "", fmt.Errorf("%w: %s", ErrContentNotFound, sub.Path)
	}

	s.bodyMu.Lock()
	s.bodies[subtopicID] = body
	s.bodyMu.Unlock()
	return body, nil
}
