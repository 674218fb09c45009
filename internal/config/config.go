// Package config loads tktd settings from JSON (comments allowed), YAML,
// TOML, a remote URL or TKT_ environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Defaults applied by Load and LoadFromEnv.
const (
	DefaultDataPath = "data/tickets.json"
	DefaultAPIHost  = "127.0.0.1"
	DefaultAPIPort  = 5000
)

// Config is the top-level tktd configuration.
type Config struct {
	Store      StoreConfig     `json:"store" yaml:"store" toml:"store"`
	API        APIConfig       `json:"api" yaml:"api" toml:"api"`
	Connectors ConnectorConfig `json:"connectors" yaml:"connectors" toml:"connectors"`
	Digest     DigestConfig    `json:"digest" yaml:"digest" toml:"digest"`
	Sentry     SentryConfig    `json:"sentry" yaml:"sentry" toml:"sentry"`
	Log        LogConfig       `json:"log" yaml:"log" toml:"log"`
}

// StoreConfig selects where tickets live.
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend" toml:"backend"` // json (default) or sqlite
	Path    string `json:"path" yaml:"path" toml:"path"`
	Watch   bool   `json:"watch,omitempty" yaml:"watch,omitempty" toml:"watch,omitempty"`
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Host string `json:"host" yaml:"host" toml:"host"`
	Port int    `json:"port" yaml:"port" toml:"port"`
	Key  string `json:"api_key" yaml:"api_key" toml:"api_key"`
}

// ConnectorConfig holds settings for chat connectors. Nil means disabled.
type ConnectorConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty" yaml:"telegram,omitempty" toml:"telegram,omitempty"`
	Slack    *SlackConfig    `json:"slack,omitempty" yaml:"slack,omitempty" toml:"slack,omitempty"`
	Webhook  *WebhookConfig  `json:"webhook,omitempty" yaml:"webhook,omitempty" toml:"webhook,omitempty"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token     string  `json:"token" yaml:"token" toml:"token"`
	AllowFrom []int64 `json:"allow_from,omitempty" yaml:"allow_from,omitempty" toml:"allow_from,omitempty"`
}

// SlackConfig holds Slack Socket Mode settings.
type SlackConfig struct {
	BotToken string   `json:"bot_token" yaml:"bot_token" toml:"bot_token"`
	AppToken string   `json:"app_token" yaml:"app_token" toml:"app_token"`
	Channels []string `json:"channels,omitempty" yaml:"channels,omitempty" toml:"channels,omitempty"`
}

// WebhookConfig maps endpoint names to their auth settings.
type WebhookConfig struct {
	Endpoints map[string]WebhookEndpoint `json:"endpoints" yaml:"endpoints" toml:"endpoints"`
}

// WebhookEndpoint authenticates one inbound webhook. Secret enables
// HMAC-SHA256 signatures; BearerToken enables a static token.
type WebhookEndpoint struct {
	Secret      string `json:"secret,omitempty" yaml:"secret,omitempty" toml:"secret,omitempty"`
	BearerToken string `json:"bearer_token,omitempty" yaml:"bearer_token,omitempty" toml:"bearer_token,omitempty"`
}

// DigestConfig schedules the periodic stats digest. Empty disables it.
type DigestConfig struct {
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty" toml:"schedule,omitempty"`
}

// SentryConfig enables crash reporting when DSN is set.
type SentryConfig struct {
	DSN         string `json:"dsn,omitempty" yaml:"dsn,omitempty" toml:"dsn,omitempty"`
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty" toml:"environment,omitempty"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`    // debug, info, warn, error
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"` // json (default) or text
}

// Load reads configuration from a file, choosing the format by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Formats accepted by Parse.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}
	return FormatJSON
}

// Parse decodes data in the given format and applies defaults. It does
// not validate.
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = BackendJSON
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultDataPath
		if c.Store.Backend == BackendSQLite {
			c.Store.Path = "data/tickets.db"
		}
	}
	if c.API.Host == "" {
		c.API.Host = DefaultAPIHost
	}
	if c.API.Port == 0 {
		c.API.Port = DefaultAPIPort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// LoadFromEnv builds a config from environment variables with the TKT_ prefix.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Backend: os.Getenv("TKT_BACKEND"),
			Path:    os.Getenv("TKT_DATA"),
			Watch:   getenvBool("TKT_WATCH"),
		},
		API: APIConfig{
			Host: getenv("TKT_API_HOST", DefaultAPIHost),
			Port: getenvInt("TKT_API_PORT", DefaultAPIPort),
			Key:  os.Getenv("TKT_API_KEY"),
		},
		Digest: DigestConfig{Schedule: os.Getenv("TKT_DIGEST_SCHEDULE")},
		Sentry: SentryConfig{
			DSN:         os.Getenv("TKT_SENTRY_DSN"),
			Environment: os.Getenv("TKT_SENTRY_ENV"),
		},
		Log: LogConfig{
			Level:  os.Getenv("TKT_LOG_LEVEL"),
			Format: os.Getenv("TKT_LOG_FORMAT"),
		},
	}

	if token := os.Getenv("TKT_TELEGRAM_TOKEN"); token != "" {
		cfg.Connectors.Telegram = &TelegramConfig{Token: token}
		if ids := os.Getenv("TKT_TELEGRAM_ALLOW_FROM"); ids != "" {
			parsed, err := parseInt64List(ids)
			if err != nil {
				return nil, fmt.Errorf("config: TKT_TELEGRAM_ALLOW_FROM: %w", err)
			}
			cfg.Connectors.Telegram.AllowFrom = parsed
		}
	}

	if bot := os.Getenv("TKT_SLACK_BOT_TOKEN"); bot != "" {
		cfg.Connectors.Slack = &SlackConfig{
			BotToken: bot,
			AppToken: os.Getenv("TKT_SLACK_APP_TOKEN"),
			Channels: splitList(os.Getenv("TKT_SLACK_CHANNELS")),
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Store.Backend))
	}
	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}
	if c.Store.Watch && c.Store.Backend != BackendJSON {
		errs = append(errs, "store.watch is only supported with the json backend")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, fmt.Sprintf("api.port %d out of range", c.API.Port))
	}

	if t := c.Connectors.Telegram; t != nil && t.Token == "" {
		errs = append(errs, "connectors.telegram.token is required")
	}
	if s := c.Connectors.Slack; s != nil {
		if s.BotToken == "" {
			errs = append(errs, "connectors.slack.bot_token is required")
		}
		if !strings.HasPrefix(s.AppToken, "xapp-") {
			errs = append(errs, "connectors.slack.app_token must be an app-level token (xapp-...)")
		}
	}
	if w := c.Connectors.Webhook; w != nil {
		for name, ep := range w.Endpoints {
			if ep.Secret == "" && ep.BearerToken == "" {
				errs = append(errs, fmt.Sprintf("connectors.webhook.endpoints.%s needs a secret or bearer_token", name))
			}
		}
	}

	if c.Digest.Schedule != "" {
		if _, err := cron.ParseStandard(c.Digest.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("digest.schedule: %v", err))
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q unknown", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q unknown", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Addr returns the API listen address.
func (c *APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt64List(s string) ([]int64, error) {
	parts := splitList(s)
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		result = append(result, n)
	}
	return result, nil
}
