package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig drives the Redis token bucket.  Anonymous callers and
// authenticated callers draw from separate buckets sized per minute.
type RateLimitConfig struct {
    Enabled     bool
    AnonPerMin  int
    UserPerMin  int
    Window      time.Duration
    TTL         time.Duration
    KeyStrategy string
    Prefix      string
    Debug       bool
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:     envBool("RATE_LIMIT_ENABLED", true),
        AnonPerMin:  envInt("RATE_LIMIT_ANON_PER_MIN", 10),
        UserPerMin:  envInt("RATE_LIMIT_USER_PER_MIN", 30),
        Window:      envDur("RATE_LIMIT_WINDOW", time.Minute),
        TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user"),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:       envBool("RATE_LIMIT_DEBUG", false),
    }
    if def.AnonPerMin < 1 { def.AnonPerMin = 1 }
    if def.UserPerMin < 1 { def.UserPerMin = 1 }
    if def.Window <= 0 { def.Window = time.Minute }
    if def.TTL < def.Window { def.TTL = def.Window }
    return def
}

// Bucket describes one tier: how many tokens it holds and how often a single
// token is added back.  Capacity tokens refill evenly across the window.
type Bucket struct {
    Capacity       int
    RefillInterval time.Duration
}

// BucketFor returns the bucket for anonymous (authenticated=false) or
// authenticated callers.
func (c RateLimitConfig) BucketFor(authenticated bool) Bucket {
    n := c.AnonPerMin
    if authenticated {
        n = c.UserPerMin
    }
    return Bucket{Capacity: n, RefillInterval: c.Window / time.Duration(n)}
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
