package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/yungbote/roadmap-backend/internal/config"
  "github.com/yungbote/roadmap-backend/internal/content"
  "github.com/yungbote/roadmap-backend/internal/db"
  "github.com/yungbote/roadmap-backend/internal/handlers"
  "github.com/yungbote/roadmap-backend/internal/logger"
  "github.com/yungbote/roadmap-backend/internal/realtime"
  "github.com/yungbote/roadmap-backend/internal/repos"
  "github.com/yungbote/roadmap-backend/internal/server"
  "github.com/yungbote/roadmap-backend/internal/services"
  "github.com/yungbote/roadmap-backend/internal/sse"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Config
  log.Info("Loading configuration from main...")
  cfg, err := config.Load(log)
  if err != nil {
    log.Error("Failed to load configuration", "error", err)
    os.Exit(1)
  }

  // Database
  databaseService, err := db.NewDatabaseService(cfg.Database, log)
  if err != nil {
    log.Error("Database init failed", "error", err)
    os.Exit(1)
  }
  if err = databaseService.AutoMigrateAll(); err != nil {
    log.Warn("Database auto migration failed", "error", err)
  }
  theDB := databaseService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  topicProgressRepo := repos.NewTopicProgressRepo(theDB, log)

  // Progress bus
  var progressBus realtime.Bus
  if cfg.Redis.Addr != "" {
    progressBus, err = realtime.NewRedisBus(cfg.Redis.Addr, cfg.Redis.Channel, log)
    if err != nil {
      log.Error("Could not init redis progress bus", "error", err)
      os.Exit(1)
    }
  } else {
    progressBus = realtime.NewMemoryBus(log)
  }
  defer progressBus.Close()

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log, time.Duration(cfg.Server.SSEHeartbeatSeconds)*time.Second)

  // Content
  contentReader := content.NewFileContentReader(cfg.Content.Dir)
  contentService := content.NewContentService(contentReader, cfg.Content.ManifestPath, log)

  // Services
  log.Info("Setting up Services from main...")
  progressService := services.NewProgressService(theDB, log, topicProgressRepo, progressBus)
  roadmapService := services.NewRoadmapService(contentService, topicProgressRepo, progressBus, sseHub, log)
  if err := roadmapService.Start(context.Background()); err != nil {
    // Terminal projector state; the server still serves the error.
    log.Warn("Roadmap projection unavailable", "error", err)
  }

  // Handlers
  log.Info("Setting up handlers from main...")
  roadmapHandler := handlers.NewRoadmapHandler(roadmapService, contentService)
  progressHandler := handlers.NewProgressHandler(progressService)
  sseHandler := handlers.NewSSEHandler(log, sseHub)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    Log:             log,
    RoadmapHandler:  roadmapHandler,
    ProgressHandler: progressHandler,
    SSEHandler:      sseHandler,
  })

  fmt.Printf("Server listening on :%s\n", cfg.Server.Port)
  if err := router.Run(":" + cfg.Server.Port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
