// Package config loads process configuration from defaults, an optional JSON
// file and QUESTIONNAIRE_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read as configuration.
// QUESTIONNAIRE_SERVER_ADDR sets server.addr.
const EnvPrefix = "QUESTIONNAIRE_"

// Draft backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// ErrDraftPathRequired is returned when a file or sqlite backend has no path.
var ErrDraftPathRequired = errors.New("config: drafts.path is required for file and sqlite backends")

// Config is the full process configuration.
type Config struct {
	Log       Log       `koanf:"log"`
	Server    Server    `koanf:"server"`
	Collector Collector `koanf:"collector"`
	Drafts    Drafts    `koanf:"drafts"`
	Submit    Submit    `koanf:"submit"`
	Schema    Schema    `koanf:"schema"`
}

// Log selects the slog level and handler.
type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Server configures the web UI listener.
type Server struct {
	Addr          string        `koanf:"addr" validate:"required"`
	ShutdownGrace time.Duration `koanf:"shutdown_grace" validate:"gte=0"`
	SessionTTL    time.Duration `koanf:"session_ttl" validate:"gte=0"`
	MaxSessions   int           `koanf:"max_sessions" validate:"gte=0"`
}

// Collector configures the standalone submission collector.
type Collector struct {
	Addr           string  `koanf:"addr" validate:"required"`
	StaticRoot     string  `koanf:"static_root"`
	SubmissionsDir string  `koanf:"submissions_dir" validate:"required"`
	RateLimit      float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst      int     `koanf:"rate_burst" validate:"gte=0"`
}

// Drafts selects where in-progress answers are kept.
type Drafts struct {
	Backend       string        `koanf:"backend" validate:"oneof=memory file sqlite redis"`
	Path          string        `koanf:"path"`
	RedisAddr     string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"gte=0"`
	RedisTTL      time.Duration `koanf:"redis_ttl" validate:"gte=0"`
}

// Submit configures the submission client. An empty base URL means the web
// UI's own origin, or DefaultCollectorURL for the terminal UI.
type Submit struct {
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Schema points at the questionnaire to serve. Empty means the built-in
// sample.
type Schema struct {
	Path string `koanf:"path"`
}

// DefaultCollectorURL is where the terminal UI submits when no base URL is
// configured.
const DefaultCollectorURL = "http://localhost:3000"

// Defaults returns the default values keyed by their dotted config path.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":                 "info",
		"log.format":                "text",
		"server.addr":               ":8080",
		"server.shutdown_grace":     "5s",
		"server.session_ttl":        "2h",
		"server.max_sessions":       10000,
		"collector.addr":            ":3000",
		"collector.static_root":     "",
		"collector.submissions_dir": "submissions",
		"collector.rate_limit":      0,
		"collector.rate_burst":      0,
		"drafts.backend":            BackendFile,
		"drafts.path":               ".questionnaire/drafts",
		"drafts.redis_addr":         "",
		"drafts.redis_password":     "",
		"drafts.redis_db":           0,
		"drafts.redis_ttl":          "0s",
		"submit.base_url":           "",
		"submit.timeout":            "5s",
		"schema.path":               "",
	}
}

// Load builds the configuration. path names an optional JSON file; a path
// that is given but missing is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("config: default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	switch c.Drafts.Backend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.Drafts.Path) == "" {
			return ErrDraftPathRequired
		}
	}
	return nil
}

// envKey maps QUESTIONNAIRE_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}
