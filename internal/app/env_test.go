package app

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
    t.Setenv("FOO", "")
    t.Setenv("BAR", "")
    t.Setenv("BAZ", "")
    t.Setenv("QUX", "")

    dir := t.TempDir()
    envPath := filepath.Join(dir, ".env.test")
    content := "\n# sample dotenv file\nFOO=alpha\nexport BAR=\"beta gamma\"\nBAZ=delta # trailing\nQUX='x # y'\nnot a pair\n"
    if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }
    if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    want := map[string]string{"FOO": "alpha", "BAR": "beta gamma", "BAZ": "delta", "QUX": "x # y"}
    for k, v := range want {
        if got := os.Getenv(k); got != v {
            t.Fatalf("%s=%q, want %q", k, got, v)
        }
    }
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
    t.Setenv("K", "")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env.a")
    b := filepath.Join(dir, ".env.b")
    if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil { t.Fatalf("write a: %v", err) }
    if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil { t.Fatalf("write b: %v", err) }

    if err := LoadEnvFiles(a, b); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "second" {
        t.Fatalf("override order failed: got %q, want second", got)
    }
}

func TestApplyEnvToConfig_FillsOnlyUnset(t *testing.T) {
    t.Setenv("FINDINGS", "")
    t.Setenv("FINDINGS_URL", "https://svc.example/result.json")
    t.Setenv("SHEET_MAP", "sheets.yaml")
    t.Setenv("CACHE_DIR", "/tmp/sheetlink-cache")
    t.Setenv("HIGHLIGHT_SCROLL_ATTEMPTS", "4")
    t.Setenv("HIGHLIGHT_THRESHOLD", "0.8")
    t.Setenv("CACHE_STRICT_PERMS", "yes")

    cfg := Config{SheetMapPath: "explicit.json"}
    ApplyEnvToConfig(&cfg)
    if cfg.FindingsPath != "https://svc.example/result.json" {
        t.Fatalf("FINDINGS_URL fallback not applied: %q", cfg.FindingsPath)
    }
    if cfg.SheetMapPath != "explicit.json" {
        t.Fatalf("explicit value overridden: %q", cfg.SheetMapPath)
    }
    if cfg.CacheDir != "/tmp/sheetlink-cache" || !cfg.CacheStrictPerms {
        t.Fatalf("cache settings not applied: %+v", cfg)
    }
    if cfg.Highlight.ScrollAttempts != 4 || cfg.Highlight.OverlapThreshold != 0.8 {
        t.Fatalf("highlight settings not applied: %+v", cfg.Highlight)
    }
}

func TestApplyEnvOverrides_TakesPrecedence(t *testing.T) {
    t.Setenv("FINDINGS", "env.json")
    t.Setenv("FINDINGS_URL", "")
    t.Setenv("HIGHLIGHT_RENDER_DELAY", "50ms")
    t.Setenv("HIGHLIGHT_SCROLL_ATTEMPTS", "-2")
    t.Setenv("VERBOSE", "off")

    cfg := DefaultConfig()
    cfg.FindingsPath = "file.json"
    cfg.Verbose = true
    ApplyEnvOverrides(&cfg)
    if cfg.FindingsPath != "env.json" {
        t.Fatalf("env did not override: %q", cfg.FindingsPath)
    }
    if cfg.Highlight.RenderDelay != 50*time.Millisecond {
        t.Fatalf("render delay %s", cfg.Highlight.RenderDelay)
    }
    if cfg.Highlight.ScrollAttempts != defaultScrollAttempts {
        t.Fatalf("non-positive attempts must be ignored, got %d", cfg.Highlight.ScrollAttempts)
    }
    if cfg.Verbose {
        t.Fatalf("VERBOSE=off should clear verbose")
    }
}

func TestLoadConfigFile_YAMLAndApply(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "sheetlink.yaml")
    content := strings.Join([]string{
        "findings: result.json",
        "sheetMap: sheets.yaml",
        "format: json",
        "report:",
        "  documentLink: project.pdf",
        "fetch:",
        "  attempts: 5",
        "  timeout: 10s",
        "highlight:",
        "  overlapThreshold: 0.75",
        "  renderDelay: 1s",
        "watch:",
        "  debounce: 1s",
        "",
    }, "\n")
    if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
        t.Fatal(err)
    }
    fc, err := LoadConfigFile(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }

    cfg := DefaultConfig()
    cfg.SheetMapPath = "flag.yaml"
    ApplyFileConfig(&cfg, fc)
    if cfg.FindingsPath != "result.json" || cfg.SheetMapPath != "flag.yaml" || cfg.Format != "json" {
        t.Fatalf("unexpected paths/format: %+v", cfg)
    }
    if cfg.DocumentLink != "project.pdf" || cfg.FetchAttempts != 5 || cfg.FetchTimeout != 10*time.Second {
        t.Fatalf("unexpected report/fetch: %+v", cfg)
    }
    if cfg.Highlight.OverlapThreshold != 0.75 || cfg.Highlight.RenderDelay != time.Second || cfg.WatchDebounce != time.Second {
        t.Fatalf("unexpected highlight/watch: %+v", cfg)
    }
    if err := ValidateConfig(cfg); err != nil {
        t.Fatalf("validate: %v", err)
    }
}

func TestLoadConfigFile_JSON(t *testing.T) {
    path := filepath.Join(t.TempDir(), "sheetlink.json")
    if err := os.WriteFile(path, []byte(`{"findings":"r.json","cache":{"dir":"c","httpOnly":true}}`), 0o600); err != nil {
        t.Fatal(err)
    }
    fc, err := LoadConfigFile(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if fc.Findings != "r.json" || fc.Cache.Dir != "c" || !fc.Cache.HTTPOnly {
        t.Fatalf("unexpected %+v", fc)
    }
}

func TestValidateConfig_Errors(t *testing.T) {
    cases := []struct {
        name string
        mod  func(*Config)
    }{
        {"missing findings", func(c *Config) { c.FindingsPath = "" }},
        {"bad format", func(c *Config) { c.Format = "html" }},
        {"negative attempts", func(c *Config) { c.FetchAttempts = -1 }},
        {"threshold range", func(c *Config) { c.Highlight.OverlapThreshold = 1.5 }},
        {"negative scroll", func(c *Config) { c.Highlight.ScrollAttempts = -1 }},
    }
    for _, tc := range cases {
        cfg := DefaultConfig()
        cfg.FindingsPath = "result.json"
        tc.mod(&cfg)
        if err := ValidateConfig(cfg); err == nil {
            t.Fatalf("%s: expected error", tc.name)
        }
    }
}
