package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  "github.com/yungbote/roadmap-backend/internal/config"
  "github.com/yungbote/roadmap-backend/internal/logger"
  "github.com/yungbote/roadmap-backend/internal/types"
)

type DatabaseService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDatabaseService(cfg config.DatabaseConfig, log *logger.Logger) (*DatabaseService, error) {
  serviceLog := log.With("service", "DatabaseService")

  var dialector gorm.Dialector
  switch cfg.Driver {
  case "postgres":
    dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
    dialector = postgres.Open(dsn)
  case "sqlite", "":
    dialector = sqlite.Open(cfg.Path)
  default:
    return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
  }

  log.Info("Connecting to database...", "driver", cfg.Driver)
  db, err := gorm.Open(dialector, &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to database", "error", err)
    return nil, fmt.Errorf("failed to connect to database: %w", err)
  }

  return &DatabaseService{db: db, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
  s.log.Info("Auto migrating tables...")
  err := s.db.AutoMigrate(
    &types.TopicProgress{},
  )
  if err != nil {
    s.log.Error("Auto migration failed", "error", err)
    return err
  }
  return nil
}

func (s *DatabaseService) DB() *gorm.DB {
  return s.db
}
