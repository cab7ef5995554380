package ratelimit

import (
	"strings"
)

// ReservedPrefix holds the proxy's own endpoints. Health checks under it are never limited.
const ReservedPrefix = "/_generative/"

// MatchEndpoint returns the configuration for path and method, or nil when the default
// limit applies. Exact paths win over prefixes.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == ReservedPrefix+"health" && (method == "GET" || method == "HEAD") {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		c := &configs[i]
		if c.Path == path && c.Method == method {
			return c
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}

	return nil
}
