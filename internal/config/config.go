package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/roadmap-backend/internal/logger"
	"github.com/yungbote/roadmap-backend/internal/utils"
)

// Config holds all service settings. Values come from an optional YAML
// file (CONFIG_FILE) with environment variables taking precedence.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Content  ContentConfig  `yaml:"content"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// SSEHeartbeatSeconds is the keep-alive comment interval on open
	// SSE streams.
	SSEHeartbeatSeconds int `yaml:"sse_heartbeat_seconds"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres". Sqlite is the default so a local
	// run needs no external database.
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type ContentConfig struct {
	// Dir is the root of the bundled content assets. ManifestPath is
	// relative to Dir.
	Dir          string `yaml:"dir"`
	ManifestPath string `yaml:"manifest_path"`
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{}

	path := utils.GetEnv("CONFIG_FILE", "", log)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Server.Port = utils.GetEnv("PORT", fallback(cfg.Server.Port, "8080"), log)
	cfg.Server.SSEHeartbeatSeconds = utils.GetEnvAsInt("SSE_HEARTBEAT_SECONDS", fallbackInt(cfg.Server.SSEHeartbeatSeconds, 15), log)
	cfg.Database.Driver = utils.GetEnv("DB_DRIVER", fallback(cfg.Database.Driver, "sqlite"), log)
	cfg.Database.Path = utils.GetEnv("DB_PATH", fallback(cfg.Database.Path, "roadmap.db"), log)
	cfg.Database.Host = utils.GetEnv("POSTGRES_HOST", fallback(cfg.Database.Host, "localhost"), log)
	cfg.Database.Port = utils.GetEnv("POSTGRES_PORT", fallback(cfg.Database.Port, "5432"), log)
	cfg.Database.User = utils.GetEnv("POSTGRES_USER", fallback(cfg.Database.User, "postgres"), log)
	cfg.Database.Password = utils.GetEnv("POSTGRES_PASSWORD", cfg.Database.Password, log)
	cfg.Database.Name = utils.GetEnv("POSTGRES_NAME", fallback(cfg.Database.Name, "roadmap"), log)
	cfg.Redis.Addr = utils.GetEnv("REDIS_ADDR", cfg.Redis.Addr, log)
	cfg.Redis.Channel = utils.GetEnv("REDIS_CHANNEL", fallback(cfg.Redis.Channel, "progress"), log)
	cfg.Content.Dir = utils.GetEnv("CONTENT_DIR", fallback(cfg.Content.Dir, "content"), log)
	cfg.Content.ManifestPath = utils.GetEnv("CONTENT_MANIFEST", fallback(cfg.Content.ManifestPath, "topics.json"), log)

	return cfg, nil
}

func fallback(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func fallbackInt(val, def int) int {
	if val <= 0 {
		return def
	}
	return val
}
