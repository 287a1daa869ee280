package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "gorm.io/datatypes"

  "github.com/yungbote/roadmap-backend/internal/services"
)

type ProgressHandler struct {
  svc services.ProgressService
}

func NewProgressHandler(svc services.ProgressService) *ProgressHandler {
  return &ProgressHandler{svc: svc}
}

// PUT /api/subtopics/:id/progress
func (h *ProgressHandler) ToggleCompletion(c *gin.Context) {
  subtopicID := c.Param("id")

  var req struct {
    IsCompleted bool           `json:"is_completed"`
    Metadata    datatypes.JSON `json:"metadata"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  row, err := h.svc.ToggleCompletion(c.Request.Context(), subtopicID, req.IsCompleted, req.Metadata)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeProgressStore, err)
    return
  }

  RespondOK(c, gin.H{"progress": row})
}

// PUT /api/subtopics/:id/notes
func (h *ProgressHandler) UpdateNotes(c *gin.Context) {
  subtopicID := c.Param("id")

  var req struct {
    Notes    *string        `json:"notes"`
    Metadata datatypes.JSON `json:"metadata"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  row, err := h.svc.UpdateNotes(c.Request.Context(), subtopicID, req.Notes, req.Metadata)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeProgressStore, err)
    return
  }

  RespondOK(c, gin.H{"progress": row})
}

// GET /api/progress
func (h *ProgressHandler) ListProgress(c *gin.Context) {
  rows, err := h.svc.ListProgress(c.Request.Context())
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeProgressStore, err)
    return
  }

  RespondOK(c, gin.H{"progress": rows})
}
