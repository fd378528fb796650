package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/workbook/internal/llm"
)

// Config holds all workbook configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       LLMConfig       `yaml:"llm"`
	Nudge     NudgeConfig     `yaml:"nudge"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Log       LogConfig       `yaml:"log"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig configures the remote (authoritative) store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres or sqlite
	DSN    string `yaml:"dsn"`
}

// CacheConfig configures the local settings cache used by anonymous sessions.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the class report memo cache. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
}

// LLMConfig mirrors llm.Config in YAML form. API keys are normally
// supplied through the environment rather than the file.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// NudgeConfig tunes the nudge eligibility engine.
type NudgeConfig struct {
	Candidates        []string `yaml:"candidates"`
	EvidenceThreshold int      `yaml:"evidence_threshold"`
	DismissalCeiling  int      `yaml:"dismissal_ceiling"`
}

// AnalyticsConfig tunes the instructor report.
type AnalyticsConfig struct {
	// ActivityWindowDays bounds how far back events are read for student
	// status classification. Weekly metrics always use the last 7 days.
	ActivityWindowDays int `yaml:"activity_window_days"`
}

// LogConfig selects the logger mode: dev or prod.
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Redis: RedisConfig{
			TTL: "24h",
		},
		Auth: AuthConfig{
			TokenTTL: "24h",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Timeout:  "60s",
		},
		Nudge: NudgeConfig{
			EvidenceThreshold: 2,
			DismissalCeiling:  2,
		},
		Analytics: AnalyticsConfig{
			ActivityWindowDays: 30,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Load reads the YAML file at path (if it exists) over the defaults and then
// applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.HTTP.Addr, "WORKBOOK_HTTP_ADDR")
	if v := os.Getenv("WORKBOOK_ALLOWED_ORIGINS"); v != "" {
		c.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	setString(&c.Database.Driver, "WORKBOOK_DB_DRIVER")
	setString(&c.Database.DSN, "WORKBOOK_DB_DSN")
	setString(&c.Cache.Path, "WORKBOOK_CACHE_DB")
	setString(&c.Redis.Addr, "WORKBOOK_REDIS_ADDR")
	setString(&c.Redis.Password, "WORKBOOK_REDIS_PASSWORD")
	if v := os.Getenv("WORKBOOK_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	setString(&c.Auth.JWTSecret, "WORKBOOK_JWT_SECRET")
	setString(&c.Log.Mode, "WORKBOOK_LOG_MODE")
	setString(&c.LLM.Provider, "WORKBOOK_LLM_PROVIDER")
	setString(&c.LLM.Model, "WORKBOOK_LLM_MODEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// RedisTTL returns the parsed memo cache TTL, defaulting to 24h.
func (c *Config) RedisTTL() time.Duration {
	return parseDuration(c.Redis.TTL, 24*time.Hour)
}

// TokenTTL returns the parsed token lifetime, defaulting to 24h.
func (c *Config) TokenTTL() time.Duration {
	return parseDuration(c.Auth.TokenTTL, 24*time.Hour)
}

// ActivityWindow returns the event look-back window for the class report.
func (c *Config) ActivityWindow() time.Duration {
	days := c.Analytics.ActivityWindowDays
	if days < 7 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// LLMProviderConfig resolves the llm.Config. Provider-specific environment
// variables (WORKBOOK_OPENAI_API_KEY and friends) win over the file, and the
// standard vendor variables are probed when no key is configured at all.
func (c *Config) LLMProviderConfig() llm.Config {
	out := llm.ConfigFromEnv()
	if os.Getenv("WORKBOOK_LLM_PROVIDER") == "" && c.LLM.Provider != "" {
		out.Provider = c.LLM.Provider
	}
	out.Timeout = parseDuration(c.LLM.Timeout, out.Timeout)

	switch out.Provider {
	case "anthropic":
		fillIfEmpty(&out.Anthropic.APIKey, c.LLM.APIKey)
		fillModel(&out.Anthropic.Model, c.LLM.Model)
	case "openai":
		fillIfEmpty(&out.OpenAI.APIKey, c.LLM.APIKey)
		fillModel(&out.OpenAI.Model, c.LLM.Model)
		fillIfEmpty(&out.OpenAI.BaseURL, c.LLM.BaseURL)
	case "gemini":
		fillIfEmpty(&out.Gemini.APIKey, c.LLM.APIKey)
		fillModel(&out.Gemini.Model, c.LLM.Model)
	case "openrouter":
		fillIfEmpty(&out.OpenRouter.APIKey, c.LLM.APIKey)
		fillModel(&out.OpenRouter.Model, c.LLM.Model)
		fillIfEmpty(&out.OpenRouter.BaseURL, c.LLM.BaseURL)
	}

	if out.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			discovered.Timeout = out.Timeout
			return discovered
		}
	}
	return out
}

func fillIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// fillModel lets llm.model (or WORKBOOK_LLM_MODEL) replace the provider's
// default model.
func fillModel(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
