package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the orchestration core.
type Config struct {
	LLM           LLMConfig           `mapstructure:"llm"`
	Cache         CacheConfig         `mapstructure:"cache"`
	WorkDay       WorkDayConfig       `mapstructure:"work_day"`
	Patterns      PatternsConfig      `mapstructure:"patterns"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Log           LogConfig           `mapstructure:"log"`
}

// LLMConfig configures the classification model provider.
type LLMConfig struct {
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Temperature float64       `mapstructure:"temperature"`
}

// CacheConfig configures the intent cache.
type CacheConfig struct {
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// WorkDayConfig bounds the schedulable day.
type WorkDayConfig struct {
	StartHour    int    `mapstructure:"start_hour"`
	EndHour      int    `mapstructure:"end_hour"`
	LunchTime    string `mapstructure:"lunch_time"` // HH:MM, empty disables lunch protection
	MinGapMin    int    `mapstructure:"min_gap_minutes"`
	UsableGapMin int    `mapstructure:"usable_gap_minutes"`
}

// PatternsConfig configures the historical user-pattern store.
type PatternsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	PersistPath    string `mapstructure:"persist_path"`
	EmbedderModel  string `mapstructure:"embedder_model"`
	EmbedderAPIKey string `mapstructure:"embedder_api_key"`
	EmbedderURL    string `mapstructure:"embedder_url"`
}

// ObservabilityConfig toggles metrics export.
type ObservabilityConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// LogConfig configures the logger backend.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file plus DAYFLOW_*
// environment variables, layered over defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DAYFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("dayflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dayflow")
		// Missing default config file is fine; defaults + env apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration, no file or env applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", 10*time.Second)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.temperature", 0.1)

	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("work_day.start_hour", 9)
	v.SetDefault("work_day.end_hour", 17)
	v.SetDefault("work_day.lunch_time", "12:00")
	v.SetDefault("work_day.min_gap_minutes", 15)
	v.SetDefault("work_day.usable_gap_minutes", 30)

	v.SetDefault("patterns.enabled", false)
	v.SetDefault("patterns.embedder_model", "text-embedding-3-small")
	v.SetDefault("patterns.embedder_url", "https://api.openai.com/v1")

	v.SetDefault("observability.metrics_enabled", false)
	v.SetDefault("observability.prometheus_port", 9464)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.WorkDay.StartHour < 0 || c.WorkDay.StartHour > 23 {
		return fmt.Errorf("work_day.start_hour out of range: %d", c.WorkDay.StartHour)
	}
	if c.WorkDay.EndHour <= c.WorkDay.StartHour || c.WorkDay.EndHour > 24 {
		return fmt.Errorf("work_day.end_hour out of range: %d", c.WorkDay.EndHour)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache.max_size must be positive: %d", c.Cache.MaxSize)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive: %s", c.Cache.TTL)
	}
	if c.WorkDay.LunchTime != "" {
		if _, err := time.Parse("15:04", c.WorkDay.LunchTime); err != nil {
			return fmt.Errorf("work_day.lunch_time invalid: %q", c.WorkDay.LunchTime)
		}
	}
	return nil
}
