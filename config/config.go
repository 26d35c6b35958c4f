package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"tooly/database"
)

// Storage backends
const (
	StorageFlatFile = "flatfile"
	StoragePostgres = "postgres"
)

// Lock backends
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "text" or "json"

	// Storage configuration
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"flatfile"`
	DataFile       string        `env:"DATA_FILE" envDefault:"data/bot_data.json"`
	FlushMode      string        `env:"FLUSH_MODE" envDefault:"immediate"`
	FlushInterval  time.Duration `env:"FLUSH_INTERVAL" envDefault:"5s"`
	LegacyDataFile string        `env:"LEGACY_DATA_FILE"`

	// Database configuration
	DatabaseURL      string `env:"DATABASE_URL"`
	DatabaseName     string `env:"DATABASE_NAME"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`

	// Locking
	LockBackend   string        `env:"LOCK_BACKEND" envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	LockTTL       time.Duration `env:"LOCK_TTL" envDefault:"10s"`

	// NATS configuration, events stay in-process when empty
	NATSServers string `env:"NATS_SERVERS"`

	// Discord is only used to verify leaderboard messages
	DiscordToken            string        `env:"DISCORD_TOKEN"`
	LeaderboardReapInterval time.Duration `env:"LEADERBOARD_REAP_INTERVAL" envDefault:"1h"`

	// Leveling
	XPCooldown        time.Duration `env:"XP_COOLDOWN" envDefault:"60s"`
	XPMin             int64         `env:"XP_MIN" envDefault:"10"`
	XPMax             int64         `env:"XP_MAX" envDefault:"25"`
	XPPerLevel        int64         `env:"XP_PER_LEVEL" envDefault:"100"`
	LevelUpMultiplier int64         `env:"LEVEL_UP_MULTIPLIER" envDefault:"50"`

	// Economy
	DailyMin      int64         `env:"DAILY_MIN" envDefault:"500"`
	DailyMax      int64         `env:"DAILY_MAX" envDefault:"1000"`
	DailyCooldown time.Duration `env:"DAILY_COOLDOWN" envDefault:"24h"`
	WorkMin       int64         `env:"WORK_MIN" envDefault:"100"`
	WorkMax       int64         `env:"WORK_MAX" envDefault:"300"`
	WorkCooldown  time.Duration `env:"WORK_COOLDOWN" envDefault:"1h"`
	FishCooldown  time.Duration `env:"FISH_COOLDOWN" envDefault:"30s"`
	GambleMin     int64         `env:"GAMBLE_MIN" envDefault:"10"`

	// Moderation
	WarnThreshold int `env:"WARN_THRESHOLD" envDefault:"3"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load reads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded, using process environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewTestConfig creates a configuration suitable for tests
func NewTestConfig() *Config {
	return &Config{
		LogLevel:                "debug",
		LogFormat:               "text",
		StorageBackend:          StorageFlatFile,
		DataFile:                "data/bot_data.json",
		FlushMode:               "immediate",
		FlushInterval:           5 * time.Second,
		DatabaseMaxConns:        4,
		LockBackend:             LockMemory,
		RedisAddr:               "localhost:6379",
		LockTTL:                 10 * time.Second,
		LeaderboardReapInterval: time.Hour,
		XPCooldown:              60 * time.Second,
		XPMin:                   10,
		XPMax:                   25,
		XPPerLevel:              100,
		LevelUpMultiplier:       50,
		DailyMin:                500,
		DailyMax:                1000,
		DailyCooldown:           24 * time.Hour,
		WorkMin:                 100,
		WorkMax:                 300,
		WorkCooldown:            time.Hour,
		FishCooldown:            30 * time.Second,
		GambleMin:               10,
		WarnThreshold:           3,
		Environment:             "test",
	}
}

// Validate checks that the settings required by the selected backends are present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageFlatFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the flatfile backend")
		}
		if c.FlushMode != "immediate" && c.FlushMode != "batched" {
			return fmt.Errorf("FLUSH_MODE must be immediate or batched, got %q", c.FlushMode)
		}
		if c.FlushMode == "batched" && c.FlushInterval <= 0 {
			return fmt.Errorf("FLUSH_INTERVAL must be positive in batched mode")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.LockBackend {
	case LockMemory:
	case LockRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis lock backend")
		}
		if c.LockTTL <= 0 {
			return fmt.Errorf("LOCK_TTL must be positive")
		}
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend)
	}

	if c.XPMin > c.XPMax || c.DailyMin > c.DailyMax || c.WorkMin > c.WorkMax {
		return fmt.Errorf("reward ranges must have min <= max")
	}
	if c.XPPerLevel <= 0 {
		return fmt.Errorf("XP_PER_LEVEL must be positive")
	}
	if c.GambleMin < 1 {
		return fmt.Errorf("GAMBLE_MIN must be at least 1")
	}
	return nil
}

// GetDatabaseURL combines the base URL with the configured database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// NATSServerList splits NATS_SERVERS on commas
func (c *Config) NATSServerList() []string {
	var servers []string
	for _, s := range strings.Split(c.NATSServers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

// ConfigureLogging applies the log level and format
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" || c.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
