package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/sheetlink/internal/app"
)

// options holds every flag value; binding records how a changed flag is
// copied into the resolved app.Config.
type options struct {
	configPath string
	envFile    string
	verbose    bool

	findings string
	sheets   string
	document string

	cacheDir     string
	cacheMaxAge  time.Duration
	cacheClear   bool
	cacheStrict  bool
	cacheOnly    bool
	fetchUA      string
	fetchTries   int
	fetchTimeout time.Duration
	fetchConc    int

	format string

	output   string
	pdfOut   string
	docLink  string
	pdfFont  string
	debounce time.Duration

	threshold      float64
	minTokenRunes  int
	scrollInterval time.Duration
	scrollAttempts int
	renderDelay    time.Duration
	hlTimeout      time.Duration
	page           int
	text           string
	finding        int
	htmlOut        string
}

type binding struct {
	name  string
	apply func(*app.Config, *options)
}

var bindings = []binding{
	{"verbose", func(c *app.Config, o *options) { c.Verbose = o.verbose }},
	{"findings", func(c *app.Config, o *options) { c.FindingsPath = o.findings }},
	{"sheets", func(c *app.Config, o *options) { c.SheetMapPath = o.sheets }},
	{"document", func(c *app.Config, o *options) { c.DocumentPath = o.document }},
	{"cache.dir", func(c *app.Config, o *options) { c.CacheDir = o.cacheDir }},
	{"cache.maxAge", func(c *app.Config, o *options) { c.CacheMaxAge = o.cacheMaxAge }},
	{"cache.clear", func(c *app.Config, o *options) { c.CacheClear = o.cacheClear }},
	{"cache.strictPerms", func(c *app.Config, o *options) { c.CacheStrictPerms = o.cacheStrict }},
	{"cache.httpOnly", func(c *app.Config, o *options) { c.HTTPCacheOnly = o.cacheOnly }},
	{"fetch.ua", func(c *app.Config, o *options) { c.UserAgent = o.fetchUA }},
	{"fetch.attempts", func(c *app.Config, o *options) { c.FetchAttempts = o.fetchTries }},
	{"fetch.timeout", func(c *app.Config, o *options) { c.FetchTimeout = o.fetchTimeout }},
	{"fetch.concurrency", func(c *app.Config, o *options) { c.FetchMaxConcurrent = o.fetchConc }},
	{"format", func(c *app.Config, o *options) { c.Format = o.format }},
	{"output", func(c *app.Config, o *options) { c.OutputPath = o.output }},
	{"pdf", func(c *app.Config, o *options) { c.OutputPDFPath = o.pdfOut }},
	{"doc.link", func(c *app.Config, o *options) { c.DocumentLink = o.docLink }},
	{"pdf.font", func(c *app.Config, o *options) { c.PDFFontPath = o.pdfFont }},
	{"watch.debounce", func(c *app.Config, o *options) { c.WatchDebounce = o.debounce }},
	{"highlight.threshold", func(c *app.Config, o *options) { c.Highlight.OverlapThreshold = o.threshold }},
	{"highlight.minTokenRunes", func(c *app.Config, o *options) { c.Highlight.MinTokenRunes = o.minTokenRunes }},
	{"highlight.scrollInterval", func(c *app.Config, o *options) { c.Highlight.ScrollInterval = o.scrollInterval }},
	{"highlight.scrollAttempts", func(c *app.Config, o *options) { c.Highlight.ScrollAttempts = o.scrollAttempts }},
	{"highlight.renderDelay", func(c *app.Config, o *options) { c.Highlight.RenderDelay = o.renderDelay }},
	{"highlight.timeout", func(c *app.Config, o *options) { c.Highlight.Timeout = o.hlTimeout }},
	{"page", func(c *app.Config, o *options) { c.Highlight.Page = o.page }},
	{"text", func(c *app.Config, o *options) { c.Highlight.Text = o.text }},
	{"finding", func(c *app.Config, o *options) { c.Highlight.Finding = o.finding }},
	{"html.out", func(c *app.Config, o *options) { c.Highlight.HTMLOut = o.htmlOut }},
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "sheetlink",
		Short: "Link compliance findings to the drawing sheets they cite",
		Long: `sheetlink reads the findings of a documentation compliance analysis,
resolves the sheet citations in them to pages of the project PDF and
produces page references, a cross-linked review report, or highlights the
cited passage in a rendered document.`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	d := app.DefaultConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", os.Getenv("SHEETLINK_CONFIG"), "Path to a YAML or JSON config file")
	pf.StringVar(&o.envFile, "env", ".env", "Dotenv file loaded before reading the environment")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose logging")
	pf.StringVar(&o.findings, "findings", "", "Findings JSON: local path or http(s) URL (env FINDINGS)")
	pf.StringVar(&o.sheets, "sheets", "", "Sheet map (YAML or JSON): local path or http(s) URL (env SHEET_MAP)")
	pf.StringVar(&o.document, "document", "", "Project document: PDF or pdf.js HTML snapshot (env DOCUMENT)")
	pf.StringVar(&o.cacheDir, "cache.dir", d.CacheDir, "Cache directory path; empty disables caching")
	pf.DurationVar(&o.cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	pf.BoolVar(&o.cacheClear, "cache.clear", false, "Clear cache directory before run")
	pf.BoolVar(&o.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	pf.BoolVar(&o.cacheOnly, "cache.httpOnly", false, "Serve URL inputs from the HTTP cache without network access")
	pf.StringVar(&o.fetchUA, "fetch.ua", d.UserAgent, "User-Agent for fetching remote inputs")
	pf.IntVar(&o.fetchTries, "fetch.attempts", d.FetchAttempts, "Attempts per remote input on transient errors")
	pf.DurationVar(&o.fetchTimeout, "fetch.timeout", d.FetchTimeout, "Per-request timeout for remote inputs")
	pf.IntVar(&o.fetchConc, "fetch.concurrency", d.FetchMaxConcurrent, "Maximum concurrent downloads")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if o.verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		return nil
	}

	root.AddCommand(newRefsCmd(o), newReportCmd(o), newHighlightCmd(o), newWatchCmd(o), newVersionCmd())
	return root
}

// resolveConfig layers configuration: defaults, then the config file, then
// the environment, then flags given on the command line.
func resolveConfig(cmd *cobra.Command, o *options) (app.Config, error) {
	if err := app.LoadEnvFiles(o.envFile); err != nil {
		return app.Config{}, err
	}
	cfg := app.DefaultConfig()
	if p := strings.TrimSpace(o.configPath); p != "" {
		fc, err := app.LoadConfigFile(p)
		if err != nil {
			return app.Config{}, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	flags := cmd.Flags()
	for _, b := range bindings {
		if flags.Changed(b.name) {
			b.apply(&cfg, o)
		}
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if err := app.ValidateConfig(cfg); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}
