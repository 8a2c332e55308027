package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs. FindingsPath and SheetMapPath accept local paths or http(s) URLs.
	FindingsPath string
	SheetMapPath string
	DocumentPath string

	OutputPath    string
	OutputPDFPath string
	// Format selects the refs output: "markdown" or "json".
	Format string
	// DocumentLink is the link target used for page cross-links in reports,
	// e.g. "project.pdf". Defaults to the base name of DocumentPath.
	DocumentLink string
	// PDFFontPath is an optional UTF-8 TrueType font for PDF output.
	PDFFontPath string

	// Fetch
	UserAgent          string
	FetchAttempts      int
	FetchTimeout       time.Duration
	FetchMaxConcurrent int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	HTTPCacheOnly    bool

	Highlight HighlightConfig

	// Watch
	WatchDebounce time.Duration

	Verbose bool
}

// HighlightConfig carries the highlighter tunables and the target of a
// single highlight run.
type HighlightConfig struct {
	OverlapThreshold float64
	MinTokenRunes    int
	ScrollInterval   time.Duration
	ScrollAttempts   int
	RenderDelay      time.Duration
	// Timeout bounds a single highlight run from the CLI.
	Timeout time.Duration

	Page    int
	Text    string
	Finding int
	// HTMLOut receives the marked-up snapshot for HTML documents.
	HTMLOut string
}

// Defaults mirrored by flag parsing; ApplyFileConfig treats them as unset.
const (
	defaultOutputPath       = "report.md"
	defaultFormat           = "markdown"
	defaultCacheDir         = ".sheetlink-cache"
	defaultUserAgent        = "sheetlink/1.0 (+https://github.com/hyperifyio/sheetlink)"
	defaultFetchAttempts    = 3
	defaultFetchTimeout     = 30 * time.Second
	defaultFetchConcurrency = 4
	defaultOverlap          = 0.6
	defaultMinTokenRunes    = 3
	defaultScrollInterval   = 200 * time.Millisecond
	defaultScrollAttempts   = 10
	defaultRenderDelay      = 500 * time.Millisecond
	defaultHighlightTimeout = 10 * time.Second
	defaultWatchDebounce    = 300 * time.Millisecond
)

// DefaultConfig returns the configuration used when no flag, file or env
// value is given.
func DefaultConfig() Config {
	return Config{
		OutputPath:         defaultOutputPath,
		Format:             defaultFormat,
		CacheDir:           defaultCacheDir,
		UserAgent:          defaultUserAgent,
		FetchAttempts:      defaultFetchAttempts,
		FetchTimeout:       defaultFetchTimeout,
		FetchMaxConcurrent: defaultFetchConcurrency,
		Highlight: HighlightConfig{
			OverlapThreshold: defaultOverlap,
			MinTokenRunes:    defaultMinTokenRunes,
			ScrollInterval:   defaultScrollInterval,
			ScrollAttempts:   defaultScrollAttempts,
			RenderDelay:      defaultRenderDelay,
			Timeout:          defaultHighlightTimeout,
		},
		WatchDebounce: defaultWatchDebounce,
	}
}
