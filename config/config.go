// Package config loads runtime configuration from an optional YAML file with
// environment variable overrides. Precedence: defaults < file < environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by Load.
const (
	EnvMemoryPath       = "RECALLMESH_MEMORY_PATH"
	EnvDatabaseURL      = "RECALLMESH_DATABASE_URL"
	EnvSessionID        = "RECALLMESH_SESSION_ID"
	EnvMaxMessages      = "RECALLMESH_MAX_MESSAGES"
	EnvProvider         = "RECALLMESH_PROVIDER"
	EnvModel            = "RECALLMESH_MODEL"
	EnvInferenceTimeout = "RECALLMESH_INFERENCE_TIMEOUT"
	EnvMaxToolRounds    = "RECALLMESH_MAX_TOOL_ROUNDS"
	EnvMetricsAddr      = "RECALLMESH_METRICS_ADDR"
	EnvPromptFile       = "RECALLMESH_PROMPT_FILE"
	EnvReminderInterval = "RECALLMESH_REMINDER_INTERVAL"
	EnvLogLevel         = "RECALLMESH_LOG_LEVEL"
	EnvLogFormat        = "RECALLMESH_LOG_FORMAT"
)

// Config is the full runtime configuration.
type Config struct {
	// MemoryPath is the JSON file backing the memory log. Ignored when
	// DatabaseURL is set; empty with no DatabaseURL means in-memory only.
	MemoryPath string `yaml:"memory_path"`
	// DatabaseURL selects the Postgres backend when non-empty.
	DatabaseURL string `yaml:"database_url"`
	// SessionID scopes rows in the Postgres backend.
	SessionID string `yaml:"session_id"`

	MaxMessages int `yaml:"max_messages"`

	// Provider is one of openai, anthropic or mock.
	Provider string `yaml:"provider"`
	// Model overrides the provider's default model id.
	Model string `yaml:"model"`

	InferenceTimeout time.Duration `yaml:"inference_timeout"`
	MaxToolRounds    int           `yaml:"max_tool_rounds"`

	// MetricsAddr enables the Prometheus listener when non-empty, e.g.
	// ":9090".
	MetricsAddr string `yaml:"metrics_addr"`

	// PromptFile overrides the built-in system prompt when non-empty.
	PromptFile string `yaml:"prompt_file"`
	// ReminderInterval injects a tool reminder every N user messages; 0
	// disables it.
	ReminderInterval int `yaml:"reminder_interval"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MemoryPath:       "memory.json",
		SessionID:        "default",
		MaxMessages:      50,
		Provider:         "openai",
		InferenceTimeout: 60 * time.Second,
		MaxToolRounds:    8,
		ReminderInterval: 10,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envString(EnvMemoryPath, &c.MemoryPath)
	envString(EnvDatabaseURL, &c.DatabaseURL)
	envString(EnvSessionID, &c.SessionID)
	envString(EnvProvider, &c.Provider)
	envString(EnvModel, &c.Model)
	envString(EnvMetricsAddr, &c.MetricsAddr)
	envString(EnvPromptFile, &c.PromptFile)
	envString(EnvLogLevel, &c.LogLevel)
	envString(EnvLogFormat, &c.LogFormat)

	if err := envInt(EnvMaxMessages, &c.MaxMessages); err != nil {
		return err
	}
	if err := envInt(EnvMaxToolRounds, &c.MaxToolRounds); err != nil {
		return err
	}
	if err := envInt(EnvReminderInterval, &c.ReminderInterval); err != nil {
		return err
	}
	return envDuration(EnvInferenceTimeout, &c.InferenceTimeout)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.MaxMessages < 1 {
		return fmt.Errorf("config: max_messages must be positive, got %d", c.MaxMessages)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("config: max_tool_rounds must be positive, got %d", c.MaxToolRounds)
	}
	if c.ReminderInterval < 0 {
		return fmt.Errorf("config: reminder_interval must not be negative, got %d", c.ReminderInterval)
	}
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("config: inference_timeout must not be negative, got %s", c.InferenceTimeout)
	}
	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
