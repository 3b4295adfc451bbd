// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/nap-verifier/internal/schemas"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment variables or CLI flags.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	LogLevel    string `json:"log_level,omitempty"`    // trace, debug, info, warn, error
	LogFormat   string `json:"log_format,omitempty"`   // text or json

	Search SearchConfig `json:"search"`
	Verify VerifyConfig `json:"verify"`
	Fetch  FetchConfig  `json:"fetch"`
	Server ServerConfig `json:"server"`
}

// SearchConfig configures the web search backend.
type SearchConfig struct {
	APIKey          string  `json:"api_key,omitempty"`
	CX              string  `json:"cx,omitempty"` // Programmable Search Engine ID
	QPS             float64 `json:"qps,omitempty"`
	ResultsPerQuery int     `json:"results_per_query,omitempty"`
}

// Configured reports whether both search credentials are present.
func (s SearchConfig) Configured() bool {
	return s.APIKey != "" && s.CX != ""
}

// VerifyConfig tunes verification runs.
type VerifyConfig struct {
	Concurrency int    `json:"concurrency,omitempty"`
	CacheWindow string `json:"cache_window,omitempty"` // Go duration, e.g. "24h"
}

// CacheWindowDuration parses CacheWindow. An empty value yields zero.
func (v VerifyConfig) CacheWindowDuration() (time.Duration, error) {
	if v.CacheWindow == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v.CacheWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid cache_window %q: %w", v.CacheWindow, err)
	}
	return d, nil
}

// FetchConfig configures listing page enrichment.
type FetchConfig struct {
	TimeoutSeconds        int    `json:"timeout_seconds,omitempty"`
	BrowserTimeoutSeconds int    `json:"browser_timeout_seconds,omitempty"`
	UserAgent             string `json:"user_agent,omitempty"`
	EnrichPages           *bool  `json:"enrich_pages,omitempty"` // nil means enabled
}

// PageEnrichment reports whether listing pages are fetched when a snippet is incomplete.
func (f FetchConfig) PageEnrichment() bool {
	return f.EnrichPages == nil || *f.EnrichPages
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `json:"port,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Search:    SearchConfig{QPS: 1, ResultsPerQuery: 5},
		Verify:    VerifyConfig{Concurrency: 4, CacheWindow: "24h"},
		Fetch:     FetchConfig{TimeoutSeconds: 20, BrowserTimeoutSeconds: 30},
		Server:    ServerConfig{Port: 8080},
	}
}

// LoadConfig loads configuration from a JSON file after checking it against the config schema.
// Returns an error if the file cannot be read, parsed or fails the schema.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
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
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := schemas.ValidateConfig(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv("GOOGLE_SEARCH_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := getenv("GOOGLE_SEARCH_CX"); v != "" {
		c.Search.CX = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := getenv("VERIFY_CACHE_WINDOW"); v != "" {
		c.Verify.CacheWindow = v
	}
	if v := getenv("VERIFY_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VERIFY_CONCURRENCY: %v", err)
		}
		c.Verify.Concurrency = n
	}
	if v := getenv("SEARCH_QPS"); v != "" {
		qps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SEARCH_QPS: %v", err)
		}
		c.Search.QPS = qps
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %v", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since each command needs different ones.
func (c *Config) Validate() error {
	if c.Verify.Concurrency < 0 {
		return fmt.Errorf("config error: 'verify.concurrency' must be non-negative")
	}
	if _, err := c.Verify.CacheWindowDuration(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Search.QPS < 0 {
		return fmt.Errorf("config error: 'search.qps' must be non-negative")
	}
	if (c.Search.APIKey == "") != (c.Search.CX == "") {
		return fmt.Errorf("config error: 'search.api_key' and 'search.cx' must be set together")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	if result.Search.APIKey == "" {
		result.Search.APIKey = defaults.Search.APIKey
	}
	if result.Search.CX == "" {
		result.Search.CX = defaults.Search.CX
	}
	if result.Search.QPS == 0 {
		result.Search.QPS = defaults.Search.QPS
	}
	if result.Search.ResultsPerQuery == 0 {
		result.Search.ResultsPerQuery = defaults.Search.ResultsPerQuery
	}

	if result.Verify.Concurrency == 0 {
		result.Verify.Concurrency = defaults.Verify.Concurrency
	}
	if result.Verify.CacheWindow == "" {
		result.Verify.CacheWindow = defaults.Verify.CacheWindow
	}

	if result.Fetch.TimeoutSeconds == 0 {
		result.Fetch.TimeoutSeconds = defaults.Fetch.TimeoutSeconds
	}
	if result.Fetch.BrowserTimeoutSeconds == 0 {
		result.Fetch.BrowserTimeoutSeconds = defaults.Fetch.BrowserTimeoutSeconds
	}
	if result.Fetch.UserAgent == "" {
		result.Fetch.UserAgent = defaults.Fetch.UserAgent
	}
	if result.Fetch.EnrichPages == nil {
		result.Fetch.EnrichPages = defaults.Fetch.EnrichPages
	}

	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}

	return result
}

// Load builds the effective configuration: defaults, then the optional file, then the
// environment.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
