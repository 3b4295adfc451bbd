package config

import (
	"fmt"
	"strconv"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	Issuer          string
	ExpirationHours int
}

// NewJWTConfig creates a JWT configuration from environment variables.
// It reads JWT_SECRET (required), JWT_ISSUER and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig(getenv func(string) string) (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          getenv("JWT_SECRET"),
		Issuer:          getenv("JWT_ISSUER"),
		ExpirationHours: 24,
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	if v := getenv("JWT_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		cfg.ExpirationHours = hours
	}
	if cfg.ExpirationHours < 1 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", cfg.ExpirationHours)
	}

	return cfg, nil
}
