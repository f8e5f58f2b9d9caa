package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one route. Paths ending in "/" match every path below them.
type Rule struct {
	Method string
	Path   string
	Limit  int           // requests per Window, 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity, Limit when 0
}

func (r Rule) key() string {
	return r.Method + " " + r.Path
}

func (r Rule) capacity() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.Limit
}

// DefaultRules returns the per-route limits for the screening API.
// Resume uploads run extraction and scoring, so they are the tightest.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "POST", Path: "/parse", Limit: 60, Window: time.Minute, Burst: 10},
		{Method: "POST", Path: "/score", Limit: 120, Window: time.Minute, Burst: 20},
		{Method: "POST", Path: "/jobs", Limit: 30, Window: time.Minute, Burst: 5},
		{Method: "POST", Path: "/jobs/", Limit: 30, Window: time.Hour, Burst: 5},
		{Method: "PATCH", Path: "/applications/", Limit: 100, Window: time.Minute, Burst: 10},
		{Method: "GET", Path: "/health"},
	}
}

// FromEnv reads RATE_LIMIT_* variables on top of DefaultConfig.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	cfg.DefaultLimit = envInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.IdleTimeout = envDuration("RATE_LIMIT_IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.Allow = splitList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Deny = splitList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	return cfg
}

// match returns the rule for a request. Exact paths beat prefixes.
func match(rules []Rule, method, path string) (Rule, bool) {
	for _, r := range rules {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	for _, r := range rules {
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r, true
		}
	}
	return Rule{}, false
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func splitList(s string) map[string]bool {
	out := make(map[string]bool)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out[item] = true
		}
	}
	return out
}
