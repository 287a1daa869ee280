package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/roadmap-backend/internal/content"
  "github.com/yungbote/roadmap-backend/internal/services"
)

type RoadmapHandler struct {
  roadmapSvc services.RoadmapService
  contentSvc *content.ContentService
}

func NewRoadmapHandler(roadmapSvc services.RoadmapService, contentSvc *content.ContentService) *RoadmapHandler {
  return &RoadmapHandler{roadmapSvc: roadmapSvc, contentSvc: contentSvc}
}

// GET /api/roadmap
func (h *RoadmapHandler) GetRoadmap(c *gin.Context) {
  snap := h.roadmapSvc.Snapshot()
  if snap.Status == services.RoadmapStatusFailed {
    c.JSON(http.StatusServiceUnavailable, snap)
    return
  }
  RespondOK(c, snap)
}

// GET /api/subtopics/:id/content
func (h *RoadmapHandler) GetSubtopicContent(c *gin.Context) {
  subtopicID := c.Param("id")

  body, err := h.contentSvc.ReadContent(c.Request.Context(), subtopicID)
  if err != nil {
    var loadErr *content.ContentLoadError
    switch {
    case errors.Is(err, content.ErrContentNotFound):
      RespondError(c, http.StatusNotFound, CodeNotFound, err)
    case errors.As(err, &loadErr):
      RespondError(c, http.StatusServiceUnavailable, CodeContentLoad, err)
    default:
      RespondError(c, http.StatusInternalServerError, CodeContentLoad, err)
    }
    return
  }

  RespondOK(c, gin.H{"subtopic_id": subtopicID, "content": body})
}
