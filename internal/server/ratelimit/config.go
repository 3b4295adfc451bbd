package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern; a trailing "/" or "*" segment matches by prefix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
// getenv is usually os.Getenv.
func LoadConfig(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.bool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Verification runs call the search API once per link.
		{Path: "/records/*/verify", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Manual edits
		{Path: "/listings/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/correction-requests/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: 20},

		// Reads use the default limit; /health is unlimited (see MatchEndpoint).
	}
}

type envReader func(string) string

func (e envReader) int(key string, def int) int {
	if v, err := strconv.Atoi(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) bool(key string, def bool) bool {
	if v, err := strconv.ParseBool(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(e(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
