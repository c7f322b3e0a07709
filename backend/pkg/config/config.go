package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	apperrors "friendmap/backend/pkg/errors"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string
	LogFile  string

	// Discord
	DiscordToken       string
	MessagesPerChannel int
	ScrapeTimeout      time.Duration
	ScrapeConcurrency  int

	// Inference
	ReplyWindow time.Duration

	// Rendering
	Layout          string
	ArtifactBackend string // file or redis
	GraphDir        string
	ArtifactTTL     time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SQLite snapshots, empty disables
	SnapshotDB string

	// Neo4j, empty URI disables
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		LogFile:            getEnv("LOG_FILE", ""),
		DiscordToken:       getEnv("DISCORD_TOKEN", ""),
		MessagesPerChannel: getEnvInt("MESSAGES_PER_CHANNEL", 30),
		ScrapeTimeout:      getEnvDuration("SCRAPE_TIMEOUT", 30*time.Second),
		ScrapeConcurrency:  getEnvInt("SCRAPE_CONCURRENCY", 4),
		ReplyWindow:        getEnvDuration("REPLY_WINDOW", 20*time.Second),
		Layout:             getEnv("LAYOUT", "reingold"),
		ArtifactBackend:    getEnv("ARTIFACT_BACKEND", "file"),
		GraphDir:           getEnv("GRAPH_DIR", "graph"),
		ArtifactTTL:        getEnvDuration("ARTIFACT_TTL", 7*24*time.Hour),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		SnapshotDB:         getEnv("SNAPSHOT_DB", ""),
		Neo4jURI:           getEnv("NEO4J_URI", ""),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.ReplyWindow <= 0 {
		return apperrors.NewConfigValidationFailed("REPLY_WINDOW", "must be positive")
	}
	if c.MessagesPerChannel <= 0 {
		return apperrors.NewConfigValidationFailed("MESSAGES_PER_CHANNEL", "must be positive")
	}
	if c.ScrapeTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("SCRAPE_TIMEOUT", "must be positive")
	}
	if c.ScrapeConcurrency <= 0 {
		return apperrors.NewConfigValidationFailed("SCRAPE_CONCURRENCY", "must be positive")
	}
	switch c.Layout {
	case "reingold", "random", "circular", "eades":
	default:
		return apperrors.NewConfigValidationFailed("LAYOUT", fmt.Sprintf("unknown layout %q", c.Layout))
	}
	switch c.ArtifactBackend {
	case "file":
		if c.GraphDir == "" {
			return apperrors.NewConfigMissingRequired("GRAPH_DIR")
		}
	case "redis":
		if c.RedisAddr == "" {
			return apperrors.NewConfigMissingRequired("REDIS_ADDR")
		}
	default:
		return apperrors.NewConfigValidationFailed("ARTIFACT_BACKEND", "must be file or redis")
	}
	if c.Neo4jURI != "" && c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	// Discord token is optional: the HTTP API takes it per request
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Neo4jEnabled reports whether aggregated graphs should be persisted to Neo4j
func (c *Config) Neo4jEnabled() bool {
	return c.Neo4jURI != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("20s") or bare seconds ("20")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
