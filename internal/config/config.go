package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BARISTALOG_DB_PATH.
const EnvPrefix = "BARISTALOG"

type Config struct {
	DBPath      string        `yaml:"db_path" mapstructure:"db_path"`
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	LogLevel    string        `yaml:"log_level" mapstructure:"log_level"`
	LogFormat   string        `yaml:"log_format" mapstructure:"log_format"`
	LLMEndpoint string        `yaml:"llm_endpoint" mapstructure:"llm_endpoint"`
	LLMAPIKey   string        `yaml:"llm_api_key" mapstructure:"llm_api_key"`
	LLMModel    string        `yaml:"llm_model" mapstructure:"llm_model"`
	CoachingTTL time.Duration `yaml:"coaching_ttl" mapstructure:"coaching_ttl"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		DBPath:      "./baristalog.db",
		Addr:        "127.0.0.1:18910",
		LogLevel:    "info",
		LogFormat:   "console",
		LLMModel:    "gpt-4o-mini",
		CoachingTTL: 30 * time.Minute,
	}
}

// Load reads .env (if present), then the optional YAML file at path, then
// BARISTALOG_* environment variables. Later sources win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("llm_endpoint", cfg.LLMEndpoint)
	v.SetDefault("llm_api_key", cfg.LLMAPIKey)
	v.SetDefault("llm_model", cfg.LLMModel)
	v.SetDefault("coaching_ttl", cfg.CoachingTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q: want console or json", c.LogFormat)
	}
	if c.CoachingTTL <= 0 {
		return fmt.Errorf("coaching_ttl must be positive, got %s", c.CoachingTTL)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.LLMAPIKey != "" {
		out.LLMAPIKey = "********"
	}
	return out
}
