package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sheetlink/internal/cache"
	"github.com/hyperifyio/sheetlink/internal/fetch"
	"github.com/hyperifyio/sheetlink/internal/finding"
	"github.com/hyperifyio/sheetlink/internal/sheetmap"
	"github.com/hyperifyio/sheetlink/internal/validate"
	"github.com/hyperifyio/sheetlink/internal/view/htmlview"
	"github.com/hyperifyio/sheetlink/internal/view/pdfview"
)

// ErrNoFindings is returned when the analysis response holds no findings.
// The CLI maps it to a non-zero exit code.
var ErrNoFindings = errors.New("no findings")

type App struct {
	cfg        Config
	httpCache  *cache.HTTPCache
	layerCache *cache.LayerCache
	fetcher    *fetch.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// Inputs is everything one run reads: findings, the sheet map trimmed to the
// document, and the issues noticed while loading them.
type Inputs struct {
	Response       *finding.Response
	FindingsSHA256 string
	SheetMap       sheetmap.Map
	PageCount      int
	Issues         []validate.Issue
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, logger: log.Logger, now: time.Now}
	if dir := strings.TrimSpace(cfg.CacheDir); dir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("cache clear failed")
			}
		}
		httpDir := filepath.Join(dir, "http")
		layerDir := filepath.Join(dir, "layers")
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeHTTPCacheByAge(httpDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged http cache")
			}
			if n, _ := cache.PurgeLayerCacheByAge(layerDir, cfg.CacheMaxAge); n > 0 {
				log.Debug().Int("removed", n).Msg("purged text layer cache")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: httpDir, StrictPerms: cfg.CacheStrictPerms}
		a.layerCache = &cache.LayerCache{Dir: layerDir, StrictPerms: cfg.CacheStrictPerms}
	}
	a.fetcher = &fetch.Client{
		HTTPClient:        newFetchHTTPClient(cfg.FetchTimeout),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.FetchAttempts,
		PerRequestTimeout: cfg.FetchTimeout,
		Cache:             a.httpCache,
		RedirectMaxHops:   5,
		MaxConcurrent:     cfg.FetchMaxConcurrent,
		BypassCache:       cfg.CacheClear,
	}
	return a, nil
}

func (a *App) Close() {
	if a.httpCache != nil {
		if n, err := cache.EnforceHTTPCacheLimits(a.httpCache.Dir, 256<<20, 2000); err == nil && n > 0 {
			a.logger.Debug().Int("evicted", n).Msg("http cache limits enforced")
		}
	}
	if a.layerCache != nil {
		if n, err := cache.EnforceLayerCacheLimits(a.layerCache.Dir, 1<<30, 200); err == nil && n > 0 {
			a.logger.Debug().Int("evicted", n).Msg("text layer cache limits enforced")
		}
	}
}

// readSource returns the bytes of a local file or URL. With HTTPCacheOnly a
// URL is served from the cache without touching the network.
func (a *App) readSource(ctx context.Context, src string) ([]byte, error) {
	if a.cfg.HTTPCacheOnly && fetch.IsURL(src) {
		if a.httpCache == nil {
			return nil, fmt.Errorf("http cache only, but no cache dir configured")
		}
		b, err := a.httpCache.LoadBody(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("cache-only read %s: %w", src, err)
		}
		return b, nil
	}
	return fetch.ReadSource(ctx, a.fetcher, src)
}

// LoadInputs reads findings, the sheet map and the document page count. The
// map is trimmed to the document; dropped entries and data problems become
// Issues and are logged, never fatal.
func (a *App) LoadInputs(ctx context.Context) (*Inputs, error) {
	data, err := a.readSource(ctx, a.cfg.FindingsPath)
	if err != nil {
		return nil, err
	}
	resp, err := finding.Parse(data)
	if errors.Is(err, finding.ErrNoRequirements) {
		return nil, fmt.Errorf("%s: %w", a.cfg.FindingsPath, ErrNoFindings)
	}
	if err != nil {
		return nil, fmt.Errorf("findings %s: %w", a.cfg.FindingsPath, err)
	}
	in := &Inputs{Response: resp, FindingsSHA256: computeSHA256Hex(string(data)), SheetMap: sheetmap.Map{}}

	if src := strings.TrimSpace(a.cfg.SheetMapPath); src != "" {
		raw, err := a.readSource(ctx, src)
		if err != nil {
			return nil, err
		}
		m, err := sheetmap.Parse(raw, filepath.Ext(sourceBaseName(src)))
		if err != nil {
			return nil, fmt.Errorf("sheet map %s: %w", src, err)
		}
		in.SheetMap = m
	}

	if doc := strings.TrimSpace(a.cfg.DocumentPath); doc != "" {
		n, err := documentPageCount(doc)
		if err != nil {
			a.logger.Warn().Err(err).Str("document", doc).Msg("page count unavailable; sheet map not validated")
		}
		in.PageCount = n
	}
	if in.PageCount > 0 {
		in.Issues = append(in.Issues, validate.ValidateSheetMap(in.SheetMap, in.PageCount)...)
		in.SheetMap, _ = in.SheetMap.Validate(in.PageCount)
	}
	in.Issues = append(in.Issues, validate.ValidateFindings(resp.Requirements, in.SheetMap)...)
	a.logIssues(in.Issues)
	a.logger.Info().
		Int("findings", len(resp.Requirements)).
		Int("sheets", len(in.SheetMap)).
		Int("pages", in.PageCount).
		Msg("inputs loaded")
	return in, nil
}

func documentPageCount(path string) (int, error) {
	switch {
	case isPDFPath(path):
		return pdfview.PageCount(path)
	case isHTMLPath(path):
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		d, err := htmlview.Parse(f)
		if err != nil {
			return 0, err
		}
		return d.PageCount(), nil
	}
	return 0, fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
}

func (a *App) logIssues(issues []validate.Issue) {
	for _, is := range issues {
		ev := a.logger.Debug()
		if is.Severity == validate.Warning {
			ev = a.logger.Warn()
		}
		if is.Finding > 0 {
			ev = ev.Int("finding", is.Finding)
		}
		ev.Msg(is.Message)
	}
}

// Refs writes the per-finding page references to w in the configured format.
func (a *App) Refs(ctx context.Context, w io.Writer) error {
	in, err := a.LoadInputs(ctx)
	if err != nil {
		return err
	}
	return a.writeRefs(w, in)
}

func (a *App) writeRefs(w io.Writer, in *Inputs) error {
	all := ResolveAll(in.Response.Requirements, in.SheetMap)
	a.logIssues(validate.ValidateReferences(byNumber(all), in.PageCount))
	if a.cfg.Format == "json" {
		return writeRefsJSON(w, all)
	}
	return writeRefsMarkdown(w, all)
}

// Report writes the Markdown review report, its sidecar manifest and the
// optional PDF rendition. It returns the Markdown path.
func (a *App) Report(ctx context.Context) (string, error) {
	in, err := a.LoadInputs(ctx)
	if err != nil {
		return "", err
	}
	all := ResolveAll(in.Response.Requirements, in.SheetMap)
	a.logIssues(validate.ValidateReferences(byNumber(all), in.PageCount))

	out := strings.TrimSpace(a.cfg.OutputPath)
	if out == "" {
		out = deriveReportOutputPath(a.cfg.FindingsPath)
	}
	now := a.now().UTC()
	md := buildReport(in.Response, all, reportOptions{
		DocumentLink: documentLinkFor(a.cfg),
		GeneratedAt:  now,
	})
	if err := validate.ValidateReport(md); err != nil {
		a.logger.Warn().Err(err).Msg("report validation issues")
		md += "\n> WARNING: Validation noted issues: " + err.Error() + "\n"
	}

	meta := manifestMeta{
		RunID:          newRunID(),
		Version:        BuildVersion,
		FindingsSource: a.cfg.FindingsPath,
		FindingsSHA256: in.FindingsSHA256,
		SheetMapSource: a.cfg.SheetMapPath,
		SheetMapSize:   len(in.SheetMap),
		Document:       a.cfg.DocumentPath,
		PageCount:      in.PageCount,
		FindingCount:   len(all),
		ReferenceCount: countRefs(all),
		HTTPCache:      a.httpCache != nil,
		GeneratedAt:    now,
	}
	md = appendReproFooter(md, runFacts{
		RunID:          meta.RunID,
		FindingsSource: meta.FindingsSource,
		SheetMapSource: meta.SheetMapSource,
		SheetMapSize:   meta.SheetMapSize,
		PageCount:      meta.PageCount,
		References:     meta.ReferenceCount,
		HTTPCache:      meta.HTTPCache,
	})
	entries := buildManifestEntries(all)
	md = appendEmbeddedManifest(md, meta, entries)

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir output: %w", err)
		}
	}
	if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	if data, err := marshalManifestJSON(meta, entries); err == nil {
		if err := os.WriteFile(deriveManifestSidecarPath(out), data, 0o644); err != nil {
			a.logger.Warn().Err(err).Msg("manifest sidecar not written")
		}
	}
	if p := strings.TrimSpace(a.cfg.OutputPDFPath); p != "" {
		if err := writeSimplePDF(md, p, a.cfg.PDFFontPath); err != nil {
			return out, fmt.Errorf("write pdf: %w", err)
		}
		a.logger.Info().Str("pdf", p).Msg("wrote pdf")
	}
	a.logger.Info().Str("out", out).Str("run_id", meta.RunID).Int("references", meta.ReferenceCount).Msg("wrote report")
	return out, nil
}
