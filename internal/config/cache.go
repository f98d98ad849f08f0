package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the client-side GET response cache.
// When Enabled is false or no Redis client is configured, every read goes
// to the backend.  TTL defines the lifetime of cache entries, Prefix
// namespaces the keys and MaxBodyBytes bounds what is stored.  Paths lists
// the endpoint prefixes that may be cached; reads outside it always go to
// the network.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
    Paths        []string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Caching is off unless CACHE_ENABLED is set.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", false),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "cstrack:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1048576),
        Paths:        parsePaths(envStr("CACHE_PATHS", "/employee/,/csSlip/areaOfCs/,/violation/")),
    }
}

func parsePaths(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(p)
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}

// Cacheable reports whether a request path falls under one of the
// configured prefixes.
func (c CacheConfig) Cacheable(path string) bool {
    for _, p := range c.Paths {
        if strings.HasPrefix(path, p) {
            return true
        }
    }
    return false
}
