// Package config loads service configuration from defaults, an optional YAML
// file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "FEED_CONFIG_PATH"

// defaultConfigPaths lists where a config file is searched, first hit wins.
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/swipefeed/config.yaml",
}

// Config holds all configuration for the service.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Stream  StreamConfig  `koanf:"stream"`
	Ranking RankingConfig `koanf:"ranking"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the HTTP server port.
	Port int `koanf:"port" validate:"gte=1,lte=65535"`

	// SessionTTL is how long an untouched feed session is kept.
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gt=0"`
}

// StoreConfig tunes the SQLite content store.
type StoreConfig struct {
	// Path is the SQLite database path, or ":memory:".
	Path string `koanf:"path" validate:"required"`

	// CleanupInterval is how often stored content is pruned.
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"gt=0"`

	// MaxContentAge is the retention age for stored content.
	MaxContentAge time.Duration `koanf:"max_content_age" validate:"gt=0"`

	// MaxContentRows caps the stored content rows.
	MaxContentRows int `koanf:"max_content_rows" validate:"gt=0"`
}

// StreamConfig tunes the upstream change-event subscription.
type StreamConfig struct {
	// URL is the upstream websocket endpoint. Empty disables the
	// subscriber (useful for local development against a static store).
	URL string `koanf:"url"`
}

// RankingConfig holds the feed scoring and orchestration tunables.
type RankingConfig struct {
	RecencyWeight        float64       `koanf:"recency_weight" validate:"gte=0,lte=1"`
	EngagementWeight     float64       `koanf:"engagement_weight" validate:"gte=0,lte=1"`
	DiversityWeight      float64       `koanf:"diversity_weight" validate:"gte=0,lte=1"`
	ActorActivityWeight  float64       `koanf:"actor_activity_weight" validate:"gte=0,lte=1"`
	AdminBoostMultiplier float64       `koanf:"admin_boost_multiplier" validate:"gte=1"`
	FreshContentWindow   time.Duration `koanf:"fresh_content_window" validate:"gt=0"`
	InactivityThreshold  time.Duration `koanf:"inactivity_threshold" validate:"gt=0"`
	ScrollThreshold      float64       `koanf:"scroll_threshold" validate:"gt=0"`
	ScrollStopDelay      time.Duration `koanf:"scroll_stop_delay" validate:"gt=0"`
	AutoRefreshInterval  time.Duration `koanf:"auto_refresh_interval" validate:"gt=0"`
	MaxQueueSize         int           `koanf:"max_queue_size" validate:"gt=0"`
	BatchDelay           time.Duration `koanf:"batch_delay" validate:"gt=0"`
	MaxFeedSize          int           `koanf:"max_feed_size" validate:"gt=0"`
	MaxSeen              int           `koanf:"max_seen" validate:"gte=0"`
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// defaultConfig returns the full default configuration. Defaults are applied
// first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       3000,
			SessionTTL: 30 * time.Minute,
		},
		Store: StoreConfig{
			Path:            "swipefeed.db",
			CleanupInterval: time.Minute,
			MaxContentAge:   7 * 24 * time.Hour,
			MaxContentRows:  5000,
		},
		Stream: StreamConfig{
			URL: "",
		},
		Ranking: RankingConfig{
			RecencyWeight:        0.30,
			EngagementWeight:     0.40,
			DiversityWeight:      0.15,
			ActorActivityWeight:  0.15,
			AdminBoostMultiplier: 2.5,
			FreshContentWindow:   6 * time.Hour,
			InactivityThreshold:  30 * time.Second,
			ScrollThreshold:      50,
			ScrollStopDelay:      150 * time.Millisecond,
			AutoRefreshInterval:  3 * time.Minute,
			MaxQueueSize:         50,
			BatchDelay:           2 * time.Second,
			MaxFeedSize:          200,
			MaxSeen:              0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// FEED_-prefixed environment variables (FEED_SERVER_PORT=8080 overrides
// server.port).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// FEED_RANKING_RECENCY_WEIGHT -> ranking.recency_weight: only the
	// first underscore separates the section from the key, the rest stay
	// part of the key name.
	envProvider := env.Provider("FEED_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "FEED_"))
		section, rest, ok := strings.Cut(key, "_")
		if !ok {
			return section
		}
		return section + "." + rest
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration's structural constraints and that the
// scoring weights sum to 1.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sum := c.Ranking.RecencyWeight + c.Ranking.EngagementWeight +
		c.Ranking.DiversityWeight + c.Ranking.ActorActivityWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("invalid config: ranking weights sum to %.3f, want 1.0", sum)
	}
	return nil
}

// SlogLevel maps the configured level onto a slog level.
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
