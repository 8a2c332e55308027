package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
    Findings  string `yaml:"findings" json:"findings"`
    SheetMap  string `yaml:"sheetMap" json:"sheetMap"`
    Document  string `yaml:"document" json:"document"`
    Output    string `yaml:"output" json:"output"`
    OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
    Format    string `yaml:"format" json:"format"`
    Verbose   bool   `yaml:"verbose" json:"verbose"`

    Report struct {
        DocumentLink string `yaml:"documentLink" json:"documentLink"`
        PDFFont      string `yaml:"pdfFont" json:"pdfFont"`
    } `yaml:"report" json:"report"`

    Fetch struct {
        UserAgent     string        `yaml:"userAgent" json:"userAgent"`
        Attempts      int           `yaml:"attempts" json:"attempts"`
        Timeout       time.Duration `yaml:"timeout" json:"timeout"`
        MaxConcurrent int           `yaml:"maxConcurrent" json:"maxConcurrent"`
    } `yaml:"fetch" json:"fetch"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
        HTTPOnly    bool          `yaml:"httpOnly" json:"httpOnly"`
    } `yaml:"cache" json:"cache"`

    Highlight struct {
        OverlapThreshold float64       `yaml:"overlapThreshold" json:"overlapThreshold"`
        MinTokenRunes    int           `yaml:"minTokenRunes" json:"minTokenRunes"`
        ScrollInterval   time.Duration `yaml:"scrollInterval" json:"scrollInterval"`
        ScrollAttempts   int           `yaml:"scrollAttempts" json:"scrollAttempts"`
        RenderDelay      time.Duration `yaml:"renderDelay" json:"renderDelay"`
        Timeout          time.Duration `yaml:"timeout" json:"timeout"`
    } `yaml:"highlight" json:"highlight"`

    Watch struct {
        Debounce time.Duration `yaml:"debounce" json:"debounce"`
    } `yaml:"watch" json:"watch"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := strings.ToLower(filepath.Ext(path)); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their flag default. Flags should already have been
// parsed; this lets the file supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.FindingsPath == "" && fc.Findings != "" { cfg.FindingsPath = fc.Findings }
    if cfg.SheetMapPath == "" && fc.SheetMap != "" { cfg.SheetMapPath = fc.SheetMap }
    if cfg.DocumentPath == "" && fc.Document != "" { cfg.DocumentPath = fc.Document }
    if (cfg.OutputPath == "" || cfg.OutputPath == defaultOutputPath) && fc.Output != "" { cfg.OutputPath = fc.Output }
    if cfg.OutputPDFPath == "" && fc.OutputPDF != "" { cfg.OutputPDFPath = fc.OutputPDF }
    if (cfg.Format == "" || cfg.Format == defaultFormat) && fc.Format != "" { cfg.Format = fc.Format }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }

    if cfg.DocumentLink == "" && fc.Report.DocumentLink != "" { cfg.DocumentLink = fc.Report.DocumentLink }
    if cfg.PDFFontPath == "" && fc.Report.PDFFont != "" { cfg.PDFFontPath = fc.Report.PDFFont }

    if (cfg.UserAgent == "" || cfg.UserAgent == defaultUserAgent) && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }
    if (cfg.FetchAttempts == 0 || cfg.FetchAttempts == defaultFetchAttempts) && fc.Fetch.Attempts > 0 { cfg.FetchAttempts = fc.Fetch.Attempts }
    if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == defaultFetchTimeout) && fc.Fetch.Timeout > 0 { cfg.FetchTimeout = fc.Fetch.Timeout }
    if (cfg.FetchMaxConcurrent == 0 || cfg.FetchMaxConcurrent == defaultFetchConcurrency) && fc.Fetch.MaxConcurrent > 0 { cfg.FetchMaxConcurrent = fc.Fetch.MaxConcurrent }

    if (cfg.CacheDir == "" || cfg.CacheDir == defaultCacheDir) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }
    if !cfg.HTTPCacheOnly && fc.Cache.HTTPOnly { cfg.HTTPCacheOnly = true }

    h := &cfg.Highlight
    fh := fc.Highlight
    if (h.OverlapThreshold == 0 || h.OverlapThreshold == defaultOverlap) && fh.OverlapThreshold > 0 { h.OverlapThreshold = fh.OverlapThreshold }
    if (h.MinTokenRunes == 0 || h.MinTokenRunes == defaultMinTokenRunes) && fh.MinTokenRunes > 0 { h.MinTokenRunes = fh.MinTokenRunes }
    if (h.ScrollInterval == 0 || h.ScrollInterval == defaultScrollInterval) && fh.ScrollInterval > 0 { h.ScrollInterval = fh.ScrollInterval }
    if (h.ScrollAttempts == 0 || h.ScrollAttempts == defaultScrollAttempts) && fh.ScrollAttempts > 0 { h.ScrollAttempts = fh.ScrollAttempts }
    if (h.RenderDelay == 0 || h.RenderDelay == defaultRenderDelay) && fh.RenderDelay > 0 { h.RenderDelay = fh.RenderDelay }
    if (h.Timeout == 0 || h.Timeout == defaultHighlightTimeout) && fh.Timeout > 0 { h.Timeout = fh.Timeout }

    if (cfg.WatchDebounce == 0 || cfg.WatchDebounce == defaultWatchDebounce) && fc.Watch.Debounce > 0 { cfg.WatchDebounce = fc.Watch.Debounce }
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
    if strings.TrimSpace(cfg.FindingsPath) == "" {
        return errors.New("config: findings path is required (or set FINDINGS)")
    }
    switch cfg.Format {
    case "", "markdown", "json":
    default:
        return fmt.Errorf("config: unknown format %q (want markdown or json)", cfg.Format)
    }
    if cfg.FetchAttempts < 0 || cfg.FetchMaxConcurrent < 0 || cfg.FetchTimeout < 0 {
        return errors.New("config: negative fetch limits are not allowed")
    }
    h := cfg.Highlight
    if h.OverlapThreshold < 0 || h.OverlapThreshold > 1 {
        return fmt.Errorf("config: highlight.overlapThreshold %v out of range [0,1]", h.OverlapThreshold)
    }
    if h.ScrollAttempts < 0 || h.MinTokenRunes < 0 || h.ScrollInterval < 0 {
        return errors.New("config: negative highlight limits are not allowed")
    }
    return nil
}
