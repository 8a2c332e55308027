package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, keys ...string) {
        if *dst != "" { return }
        for _, k := range keys {
            if v := os.Getenv(k); v != "" {
                *dst = v
                return
            }
        }
    }
    setString(&cfg.FindingsPath, "FINDINGS", "FINDINGS_URL")
    setString(&cfg.SheetMapPath, "SHEET_MAP")
    setString(&cfg.DocumentPath, "DOCUMENT")
    setString(&cfg.CacheDir, "CACHE_DIR")
    setString(&cfg.PDFFontPath, "PDF_FONT")
    setString(&cfg.UserAgent, "USER_AGENT")

    if cfg.CacheMaxAge == 0 {
        if d, ok := envDuration("CACHE_MAX_AGE"); ok { cfg.CacheMaxAge = d }
    }
    h := &cfg.Highlight
    if h.OverlapThreshold == 0 {
        if f, ok := envFloat("HIGHLIGHT_THRESHOLD"); ok { h.OverlapThreshold = f }
    }
    if h.ScrollInterval == 0 {
        if d, ok := envDuration("HIGHLIGHT_SCROLL_INTERVAL"); ok { h.ScrollInterval = d }
    }
    if h.ScrollAttempts == 0 {
        if n, ok := envInt("HIGHLIGHT_SCROLL_ATTEMPTS"); ok { h.ScrollAttempts = n }
    }
    if h.RenderDelay == 0 {
        if d, ok := envDuration("HIGHLIGHT_RENDER_DELAY"); ok { h.RenderDelay = d }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            if s == "1" || s == "true" || s == "yes" || s == "on" {
                *dst = true
            }
        }
    }
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.HTTPCacheOnly, "HTTP_CACHE_ONLY")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("FINDINGS"); v != "" { cfg.FindingsPath = v }
    if v := os.Getenv("FINDINGS_URL"); v != "" { cfg.FindingsPath = v }
    if v := os.Getenv("SHEET_MAP"); v != "" { cfg.SheetMapPath = v }
    if v := os.Getenv("DOCUMENT"); v != "" { cfg.DocumentPath = v }
    if v := os.Getenv("CACHE_DIR"); v != "" { cfg.CacheDir = v }
    if v := os.Getenv("PDF_FONT"); v != "" { cfg.PDFFontPath = v }
    if v := os.Getenv("USER_AGENT"); v != "" { cfg.UserAgent = v }

    if d, ok := envDuration("CACHE_MAX_AGE"); ok { cfg.CacheMaxAge = d }
    if f, ok := envFloat("HIGHLIGHT_THRESHOLD"); ok { cfg.Highlight.OverlapThreshold = f }
    if d, ok := envDuration("HIGHLIGHT_SCROLL_INTERVAL"); ok { cfg.Highlight.ScrollInterval = d }
    if n, ok := envInt("HIGHLIGHT_SCROLL_ATTEMPTS"); ok { cfg.Highlight.ScrollAttempts = n }
    if d, ok := envDuration("HIGHLIGHT_RENDER_DELAY"); ok { cfg.Highlight.RenderDelay = d }

    // Booleans override when env present and truthy/falsey
    setBool := func(dst *bool, envKey string) {
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            switch s {
            case "1", "true", "yes", "on":
                *dst = true
            case "0", "false", "no", "off":
                *dst = false
            }
        }
    }
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.HTTPCacheOnly, "HTTP_CACHE_ONLY")
}

func envDuration(key string) (time.Duration, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    d, err := time.ParseDuration(s)
    return d, err == nil
}

func envInt(key string) (int, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    n, err := strconv.Atoi(s)
    return n, err == nil && n > 0
}

func envFloat(key string) (float64, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    f, err := strconv.ParseFloat(s, 64)
    return f, err == nil
}
