package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultJWTIssuer is accepted when JWT_ISSUER is unset.
const DefaultJWTIssuer = "interview-scheduler"

const defaultJWTExpirationHours = 24

// JWTConfig holds the HMAC secret shared with the identity service. Tokens
// are normally issued there; the token command mints development ones.
type JWTConfig struct {
	Secret          string
	Issuer          string
	ExpirationHours int
}

// NewJWTConfig reads JWT_SECRET (required), JWT_ISSUER and
// JWT_EXPIRATION_HOURS.
func NewJWTConfig() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          os.Getenv("JWT_SECRET"),
		Issuer:          envOr("JWT_ISSUER", DefaultJWTIssuer),
		ExpirationHours: defaultJWTExpirationHours,
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if raw := os.Getenv("JWT_EXPIRATION_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS %q: %w", raw, err)
		}
		cfg.ExpirationHours = hours
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TTL is the lifetime of tokens minted with this configuration.
func (c *JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

func (c *JWTConfig) check() error {
	switch {
	case len(c.Secret) < 16:
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	case c.ExpirationHours < 1:
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got %d", c.ExpirationHours)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
