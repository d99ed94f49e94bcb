package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/scribe/internal/common"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/scribe/scribe.db"

// Config is the typed view of the application settings.
type Config struct {
	Logging  LoggingConfig
	Database DatabaseConfig
	Cache    CacheConfig
	LLM      LLMConfig
	Commit   CommitConfig
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects and locates the record store.
type DatabaseConfig struct {
	Driver   string
	Path     string
	URL      string
	MaxConns int32
}

// CacheConfig configures the shared record cache.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// LLMConfig configures the extraction service.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// CommitConfig configures how a staged record is applied.
type CommitConfig struct {
	Policy string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.rate_limit", 30)
	v.SetDefault("commit.policy", "stop")
}

// Load builds a Config from v. It follows this precedence:
// 1. Viper configuration (from config file, flags or SCRIBE_ env vars)
// 2. Provider environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY)
// 3. Default values
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("database.driver")),
			Path:     ExpandPath(v.GetString("database.path")),
			URL:      v.GetString("database.url"),
			MaxConns: v.GetInt32("database.max_conns"),
		},
		Cache: CacheConfig{
			RedisURL: v.GetString("cache.redis_url"),
			TTL:      v.GetDuration("cache.ttl"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			Timeout:     v.GetDuration("llm.timeout"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Commit: CommitConfig{
			Policy: strings.ToLower(v.GetString("commit.policy")),
		},
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerAPIKey(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func providerAPIKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// Validate checks the enumerated settings. Credentials are checked by the
// commands that need them.
func (c Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if !slices.Contains([]string{"console", "text", "json"}, c.Logging.Format) {
		return fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, c.Logging.Format)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", common.ErrMissingConfig)
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for postgres", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported database driver: %s", common.ErrInvalidConfig, c.Database.Driver)
	}

	if !slices.Contains([]string{"anthropic", "openai"}, c.LLM.Provider) {
		return fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature must be between 0 and 2", common.ErrInvalidConfig)
	}

	if !slices.Contains([]string{"stop", "continue", "best-effort"}, c.Commit.Policy) {
		return fmt.Errorf("%w: invalid commit policy: %s", common.ErrInvalidConfig, c.Commit.Policy)
	}
	return nil
}
