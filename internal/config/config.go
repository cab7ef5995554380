// Package config provides configuration loading and validation for the proxy.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Locator implementations.
const (
	LocatorRegex     = "regex"
	LocatorTokenizer = "tokenizer"
)

// Config is the process configuration. It is built once at startup and passed explicitly;
// nothing mutates it afterwards.
type Config struct {
	// Listener and origin
	Port          int    `json:"port,omitempty" yaml:"port,omitempty"`
	OriginBaseURL string `json:"origin_base_url,omitempty" yaml:"origin_base_url,omitempty"` // Default origin; x-customize-host overrides per request

	// Configuration store
	StoreBackend string `json:"store_backend,omitempty" yaml:"store_backend,omitempty"` // memory | redis | postgres
	RedisURL     string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	DatabaseURL  string `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	// Admin auth
	AdminToken         string `json:"admin_token,omitempty" yaml:"admin_token,omitempty"`
	AdminTokenHash     string `json:"admin_token_hash,omitempty" yaml:"admin_token_hash,omitempty"` // bcrypt hash of the admin token
	JWTSecret          string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty" yaml:"jwt_expiration_hours,omitempty"`

	// Providers, tried in this order when configured
	CerebrasAPIKey      string `json:"cerebras_api_key,omitempty" yaml:"cerebras_api_key,omitempty"`
	CerebrasModel       string `json:"cerebras_model,omitempty" yaml:"cerebras_model,omitempty"`
	CerebrasBaseURL     string `json:"cerebras_base_url,omitempty" yaml:"cerebras_base_url,omitempty"`
	CloudflareAccountID string `json:"cloudflare_account_id,omitempty" yaml:"cloudflare_account_id,omitempty"`
	CloudflareAPIToken  string `json:"cloudflare_api_token,omitempty" yaml:"cloudflare_api_token,omitempty"`
	CloudflareModel     string `json:"cloudflare_model,omitempty" yaml:"cloudflare_model,omitempty"`
	CloudflareBaseURL   string `json:"cloudflare_base_url,omitempty" yaml:"cloudflare_base_url,omitempty"`
	GeminiAPIKey        string `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`
	GeminiModel         string `json:"gemini_model,omitempty" yaml:"gemini_model,omitempty"`

	// Timeouts
	ProviderTimeoutSeconds int `json:"provider_timeout_seconds,omitempty" yaml:"provider_timeout_seconds,omitempty"` // Per provider attempt
	UpstreamTimeoutSeconds int `json:"upstream_timeout_seconds,omitempty" yaml:"upstream_timeout_seconds,omitempty"`

	// Rewriting
	MarkerClass string `json:"marker_class,omitempty" yaml:"marker_class,omitempty"`
	Locator     string `json:"locator,omitempty" yaml:"locator,omitempty"` // regex | tokenizer

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		Port:                   8080,
		StoreBackend:           StoreMemory,
		JWTExpirationHours:     24,
		CerebrasModel:          "gpt-oss-120b",
		CerebrasBaseURL:        "https://api.cerebras.ai/v1",
		CloudflareModel:        "@cf/meta/llama-3.1-8b-instruct",
		CloudflareBaseURL:      "https://api.cloudflare.com/client/v4",
		GeminiModel:            "gemini-2.0-flash",
		ProviderTimeoutSeconds: 20,
		UpstreamTimeoutSeconds: 30,
		MarkerClass:            "generative-customization",
		Locator:                LocatorRegex,
		LogLevel:               "info",
	}
}

// FromEnv reads the configuration from environment variables. Unset variables leave the
// field empty so that a file config or Defaults can fill it.
func FromEnv() (*Config, error) {
	cfg := &Config{
		OriginBaseURL:       os.Getenv("ORIGIN_BASE_URL"),
		StoreBackend:        os.Getenv("STORE_BACKEND"),
		RedisURL:            os.Getenv("REDIS_URL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		AdminToken:          os.Getenv("ADMIN_TOKEN"),
		AdminTokenHash:      os.Getenv("ADMIN_TOKEN_HASH"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		CerebrasAPIKey:      os.Getenv("CEREBRAS_API_KEY"),
		CerebrasModel:       os.Getenv("CEREBRAS_MODEL"),
		CerebrasBaseURL:     os.Getenv("CEREBRAS_BASE_URL"),
		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		CloudflareAPIToken:  os.Getenv("CLOUDFLARE_API_TOKEN"),
		CloudflareModel:     os.Getenv("CLOUDFLARE_MODEL"),
		CloudflareBaseURL:   os.Getenv("CLOUDFLARE_BASE_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         os.Getenv("GEMINI_MODEL"),
		MarkerClass:         os.Getenv("MARKER_CLASS"),
		Locator:             os.Getenv("LOCATOR"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.Port},
		{"JWT_EXPIRATION_HOURS", &cfg.JWTExpirationHours},
		{"PROVIDER_TIMEOUT_SECONDS", &cfg.ProviderTimeoutSeconds},
		{"UPSTREAM_TIMEOUT_SECONDS", &cfg.UpstreamTimeoutSeconds},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		*v.dst = n
	}

	return cfg, nil
}

// LoadConfig loads configuration from a JSON or YAML file. The format is chosen by extension
// (.yaml and .yml are YAML, everything else JSON).
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has usable values. It expects a config that has
// already been merged with Defaults.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}

	if c.OriginBaseURL != "" {
		u, err := url.Parse(c.OriginBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'origin_base_url' must be an absolute URL: %q", c.OriginBaseURL)
		}
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'redis_url' is required for the redis store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.StoreBackend)
	}

	switch c.Locator {
	case LocatorRegex, LocatorTokenizer:
	default:
		return fmt.Errorf("config error: unknown locator %q", c.Locator)
	}

	if c.ProviderTimeoutSeconds <= 0 {
		return fmt.Errorf("config error: 'provider_timeout_seconds' must be positive")
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("config error: 'upstream_timeout_seconds' must be positive")
	}
	if c.JWTExpirationHours < 1 {
		return fmt.Errorf("config error: 'jwt_expiration_hours' must be at least 1")
	}
	if (c.CloudflareAccountID == "") != (c.CloudflareAPIToken == "") {
		return fmt.Errorf("config error: 'cloudflare_account_id' and 'cloudflare_api_token' must be set together")
	}
	if strings.TrimSpace(c.MarkerClass) == "" || strings.ContainsAny(c.MarkerClass, " \t\"'") {
		return fmt.Errorf("config error: 'marker_class' must be a single class token")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Values already set on c always win.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct {
		dst *string
		def string
	}{
		{&result.OriginBaseURL, defaults.OriginBaseURL},
		{&result.StoreBackend, defaults.StoreBackend},
		{&result.RedisURL, defaults.RedisURL},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.AdminToken, defaults.AdminToken},
		{&result.AdminTokenHash, defaults.AdminTokenHash},
		{&result.JWTSecret, defaults.JWTSecret},
		{&result.CerebrasAPIKey, defaults.CerebrasAPIKey},
		{&result.CerebrasModel, defaults.CerebrasModel},
		{&result.CerebrasBaseURL, defaults.CerebrasBaseURL},
		{&result.CloudflareAccountID, defaults.CloudflareAccountID},
		{&result.CloudflareAPIToken, defaults.CloudflareAPIToken},
		{&result.CloudflareModel, defaults.CloudflareModel},
		{&result.CloudflareBaseURL, defaults.CloudflareBaseURL},
		{&result.GeminiAPIKey, defaults.GeminiAPIKey},
		{&result.GeminiModel, defaults.GeminiModel},
		{&result.MarkerClass, defaults.MarkerClass},
		{&result.Locator, defaults.Locator},
		{&result.LogLevel, defaults.LogLevel},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = s.def
		}
	}

	ints := []struct {
		dst *int
		def int
	}{
		{&result.Port, defaults.Port},
		{&result.JWTExpirationHours, defaults.JWTExpirationHours},
		{&result.ProviderTimeoutSeconds, defaults.ProviderTimeoutSeconds},
		{&result.UpstreamTimeoutSeconds, defaults.UpstreamTimeoutSeconds},
	}
	for _, i := range ints {
		if *i.dst == 0 {
			*i.dst = i.def
		}
	}

	return result
}

// Load builds the process configuration: environment first, then the optional file, then
// Defaults. The result is validated.
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}

	merged := *env
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = merged.MergeWithDefaults(*file)
	}
	merged = merged.MergeWithDefaults(Defaults())

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ProviderTimeout is the deadline applied to each provider attempt.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

// UpstreamTimeout bounds the origin fetch.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
