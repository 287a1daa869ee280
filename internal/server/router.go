package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/yungbote/roadmap-backend/internal/handlers"
  "github.com/yungbote/roadmap-backend/internal/logger"
  "github.com/yungbote/roadmap-backend/internal/middleware"
)

type RouterConfig struct {
  Log             *logger.Logger
  RoadmapHandler  *handlers.RoadmapHandler
  ProgressHandler *handlers.ProgressHandler
  SSEHandler      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.New()
  router.Use(gin.Recovery())
  router.Use(middleware.RequestLogger(cfg.Log))

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  // SSE
  router.GET("/sse/stream", cfg.SSEHandler.SSEStream)
  router.POST("/sse/subscribe", cfg.SSEHandler.SSESubscribe)
  router.POST("/sse/unsubscribe", cfg.SSEHandler.SSEUnsubscribe)

  api := router.Group("/api")
  {
    api.GET("/roadmap", cfg.RoadmapHandler.GetRoadmap)
    api.GET("/subtopics/:id/content", cfg.RoadmapHandler.GetSubtopicContent)
    api.PUT("/subtopics/:id/progress", cfg.ProgressHandler.ToggleCompletion)
    api.PUT("/subtopics/:id/notes", cfg.ProgressHandler.UpdateNotes)
    api.GET("/progress", cfg.ProgressHandler.ListProgress)
  }

  return router
}
