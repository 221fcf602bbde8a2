// Package config handles configuration loading and management for troupe.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for troupe.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Dedupe     DedupeConfig     `mapstructure:"dedupe"`
	Store      StoreConfig      `mapstructure:"store"`
}

// ProviderConfig holds model provider settings.
type ProviderConfig struct {
	// Kind selects the provider backend: "anthropic" or "openai".
	Kind string `mapstructure:"kind"`
	// Model is the model name to use for dialogue generation.
	Model string `mapstructure:"model"`
	// ClassifierModel is the (usually cheaper) model used for
	// complexity classification. Empty means same as Model.
	ClassifierModel string `mapstructure:"classifier_model"`
	// APIKey is the provider API key. Supports ${VAR} expansion.
	APIKey string `mapstructure:"api_key"`
	// Timeout is the end-to-end timeout for one remote call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SchedulerConfig holds hybrid scheduler policy settings.
type SchedulerConfig struct {
	// GroupSize is the number of agents per generation group.
	GroupSize int `mapstructure:"group_size"`
	// MaxConcurrent bounds in-flight groups when coherence is off.
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// Coherent serializes groups so each agent can react to what
	// earlier agents already said in this turn.
	Coherent bool `mapstructure:"coherent"`
}

// RetryConfig holds retry/backoff settings for remote calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per call.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BaseDelay is the delay unit for exponential backoff.
	BaseDelay time.Duration `mapstructure:"base_delay"`
	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// ClassifierConfig holds complexity classifier cache settings.
type ClassifierConfig struct {
	// CacheTTL is how long a classification stays fresh.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// CacheCapacity is the soft bound on cached questions.
	CacheCapacity int `mapstructure:"cache_capacity"`
}

// DedupeConfig holds deduplication guard settings.
type DedupeConfig struct {
	// GracePeriod is how long a completed session's record survives,
	// absorbing late duplicates from retried provider calls.
	GracePeriod time.Duration `mapstructure:"grace_period"`
}

// StoreConfig holds storage settings.
type StoreConfig struct {
	// Path is the SQLite database path. Empty selects the default
	// project-local path.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TROUPE_*, ANTHROPIC_API_KEY, OPENAI_API_KEY)
// 2. Project config (.troupe.yaml in current directory or parent)
// 3. User config (~/.config/troupe/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("TROUPE")

	v.BindEnv("provider.kind", "TROUPE_PROVIDER")
	v.BindEnv("provider.model", "TROUPE_MODEL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references, then fall back to the provider's
	// conventional key variable.
	cfg.Provider.APIKey = os.ExpandEnv(cfg.Provider.APIKey)
	if cfg.Provider.APIKey == "" {
		switch cfg.Provider.Kind {
		case "openai":
			cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Provider.APIKey = os.ExpandEnv(cfg.Provider.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants that cannot be fixed by defaulting.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown provider kind %q", c.Provider.Kind)
	}
	if c.Scheduler.GroupSize < 1 {
		return fmt.Errorf("scheduler.group_size must be >= 1, got %d", c.Scheduler.GroupSize)
	}
	if c.Scheduler.MaxConcurrent < 1 {
		return fmt.Errorf("scheduler.max_concurrent must be >= 1, got %d", c.Scheduler.MaxConcurrent)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.kind", "anthropic")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.classifier_model", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", "90s")

	v.SetDefault("scheduler.group_size", 1)
	v.SetDefault("scheduler.max_concurrent", 3)
	v.SetDefault("scheduler.coherent", true)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "10s")

	v.SetDefault("classifier.cache_ttl", "10m")
	v.SetDefault("classifier.cache_capacity", 512)

	v.SetDefault("dedupe.grace_period", "30s")

	v.SetDefault("store.path", "")
}

// getUserConfigDir returns the XDG config directory for troupe.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "troupe")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "troupe")
	}
	return filepath.Join(home, ".config", "troupe")
}

// findProjectConfig searches for .troupe.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".troupe.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Kind:    "anthropic",
			Timeout: 90 * time.Second,
		},
		Scheduler: SchedulerConfig{
			GroupSize:     1,
			MaxConcurrent: 3,
			Coherent:      true,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
		},
		Classifier: ClassifierConfig{
			CacheTTL:      10 * time.Minute,
			CacheCapacity: 512,
		},
		Dedupe: DedupeConfig{
			GracePeriod: 30 * time.Second,
		},
	}
}
