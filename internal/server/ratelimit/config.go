package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the bucket shape for one method and path.
type EndpointConfig struct {
	Path   string // exact, or a prefix when it ends in "/"
	Method string
	Limit  int // requests per Window
	Window time.Duration
	Burst  int // bucket capacity; Limit when 0
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !envValue("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envValue("RATE_LIMIT_DEFAULT_LIMIT", 600, strconv.Atoi),
		DefaultWindow:   envValue("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envValue("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		IdleTTL:         envValue("RATE_LIMIT_IDLE_TTL", DefaultIdleTTL, time.ParseDuration),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-endpoint limits for the interview API.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Booking takes party locks and runs two conflict queries.
		{Path: "/interviews", Method: http.MethodPost, Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/interviews/available-slots", Method: http.MethodGet, Limit: 120, Window: time.Minute, Burst: 20},

		// Lifecycle writes
		{Path: "/interviews/", Method: http.MethodPatch, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/interviews/", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/interviews/", Method: http.MethodDelete, Limit: 100, Window: time.Minute, Burst: 10},
	}
}

// envValue parses key with parse, falling back to def when unset or malformed.
func envValue[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
