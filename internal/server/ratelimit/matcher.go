package ratelimit

import (
	"net/http"
	"strings"
)

var unlimited = &EndpointConfig{Path: "unlimited"}

// MatchEndpoint returns the rule for method+path, or nil when only the
// default applies. Exact paths win over prefixes and the longest prefix wins.
// Health and metrics probes are never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if method == http.MethodGet && (path == "/health" || path == "/metrics") {
		return unlimited
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
