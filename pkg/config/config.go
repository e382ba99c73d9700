// Package config loads kanjiguard settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/japaniel/kanjiguard/pkg/rewrite"
)

// DefaultPath is read when no path is given and KANJIGUARD_CONFIG is unset.
const DefaultPath = "./kanjiguard.yaml"

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Learner  LearnerConfig  `yaml:"learner"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"KANJIGUARD_DB" env-default:"kanjiguard.db"`
}

// LearnerConfig names the learner commands act for.
type LearnerConfig struct {
	Name string `yaml:"name" env:"KANJIGUARD_LEARNER" env-default:"default"`
	// DisplayMode seeds the learner's mode when none is stored.
	DisplayMode string `yaml:"display_mode" env:"KANJIGUARD_DISPLAY_MODE" env-default:"phonetic_substitute"`
}

// LLMConfig holds the chat completion endpoint used by generate.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"     env:"KANJIGUARD_LLM_BASE_URL"     env-default:"https://openrouter.ai/api/v1/"`
	APIKey      string        `yaml:"api_key"      env:"OPENROUTER_API_KEY"`
	Model       string        `yaml:"model"        env:"KANJIGUARD_LLM_MODEL"        env-default:"openai/gpt-4o"`
	MaxTokens   int           `yaml:"max_tokens"   env:"KANJIGUARD_LLM_MAX_TOKENS"   env-default:"2000"`
	Temperature float64       `yaml:"temperature"  env:"KANJIGUARD_LLM_TEMPERATURE"  env-default:"0.7"`
	MaxAttempts int           `yaml:"max_attempts" env:"KANJIGUARD_LLM_MAX_ATTEMPTS" env-default:"3"`
	Timeout     time.Duration `yaml:"timeout"      env:"KANJIGUARD_LLM_TIMEOUT"      env-default:"2m"`
}

// PipelineConfig sizes the worker pool and write batches.
type PipelineConfig struct {
	Workers   int `yaml:"workers"    env:"KANJIGUARD_WORKERS"    env-default:"4"`
	BatchSize int `yaml:"batch_size" env:"KANJIGUARD_BATCH_SIZE" env-default:"50"`
}

// FetchConfig bounds article downloads.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"        env:"KANJIGUARD_FETCH_TIMEOUT"        env-default:"30s"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"KANJIGUARD_FETCH_MAX_BODY_BYTES" env-default:"10485760"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"KANJIGUARD_LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// An empty path falls back to KANJIGUARD_CONFIG, then DefaultPath. If the
// file does not exist and no path was given explicitly, configuration is
// loaded from ENV + defaults only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("KANJIGUARD_CONFIG")
	}
	explicitPath := path != ""
	if !explicitPath {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks business rules and reports every violation at once.
// The API key is not required here; only generate needs it.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path must be set"))
	}
	if strings.TrimSpace(c.Learner.Name) == "" {
		errs = append(errs, errors.New("learner.name must be set"))
	}
	if _, err := rewrite.ParseMode(c.Learner.DisplayMode); err != nil {
		errs = append(errs, fmt.Errorf("learner.display_mode: %w", err))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be > 0 (got %d)", c.LLM.MaxTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within [0, 2] (got %v)", c.LLM.Temperature))
	}
	if c.LLM.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_attempts must be > 0 (got %d)", c.LLM.MaxAttempts))
	}
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.workers must be > 0 (got %d)", c.Pipeline.Workers))
	}
	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.batch_size must be > 0 (got %d)", c.Pipeline.BatchSize))
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error (got %q)", c.Log.Level))
	}
	return errors.Join(errs...)
}

// DisplayMode returns the parsed learner.display_mode.
func (c *Config) DisplayMode() rewrite.Mode {
	m, err := rewrite.ParseMode(c.Learner.DisplayMode)
	if err != nil {
		return rewrite.ModeNone
	}
	return m
}
