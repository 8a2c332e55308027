package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hyperifyio/sheetlink/internal/highlight"
	"github.com/hyperifyio/sheetlink/internal/view"
	"github.com/hyperifyio/sheetlink/internal/view/htmlview"
	"github.com/hyperifyio/sheetlink/internal/view/pdfview"
)

// Highlight runs one highlight query against the configured document and
// prints the outcome with the marked spans. The target is taken from
// --page/--text or, with --finding, from that finding's first reference.
func (a *App) Highlight(ctx context.Context, w io.Writer) (highlight.Result, error) {
	hc := a.cfg.Highlight
	page, text := hc.Page, hc.Text
	if hc.Finding > 0 {
		p, t, err := a.findingTarget(ctx, hc.Finding)
		if err != nil {
			return highlight.Result{}, err
		}
		if page <= 0 {
			page = p
		}
		if strings.TrimSpace(text) == "" {
			text = t
		}
	}
	if page <= 0 {
		return highlight.Result{}, fmt.Errorf("highlight: page is required")
	}

	doc, snapshot, err := a.loadDocument(ctx)
	if err != nil {
		return highlight.Result{}, err
	}
	res, err := runHighlight(ctx, doc, page, text, a.highlightOptions(), hc.Timeout)
	if err != nil {
		return res, err
	}
	fmt.Fprintf(w, "page=%d match=%s spans=%d reason=%s\n", res.Page, res.MatchKind, res.MatchedSpanCount, res.Reason)
	for _, s := range markedSpans(doc, page) {
		fmt.Fprintf(w, "  > %s\n", s)
	}
	if snapshot != nil && strings.TrimSpace(hc.HTMLOut) != "" {
		if err := writeSnapshot(snapshot, hc.HTMLOut); err != nil {
			return res, err
		}
		a.logger.Info().Str("out", hc.HTMLOut).Msg("wrote highlighted snapshot")
	}
	return res, nil
}

func (a *App) highlightOptions() highlight.Options {
	hc := a.cfg.Highlight
	logger := a.logger
	return highlight.Options{
		OverlapThreshold: hc.OverlapThreshold,
		MinTokenRunes:    hc.MinTokenRunes,
		ScrollInterval:   hc.ScrollInterval,
		ScrollAttempts:   hc.ScrollAttempts,
		RenderDelay:      hc.RenderDelay,
		Logger:           &logger,
	}
}

// findingTarget returns the first page reference of finding n and its
// locator text.
func (a *App) findingTarget(ctx context.Context, n int) (int, string, error) {
	in, err := a.LoadInputs(ctx)
	if err != nil {
		return 0, "", err
	}
	for _, fr := range ResolveAll(in.Response.Requirements, in.SheetMap) {
		if fr.Finding.Number != n {
			continue
		}
		if len(fr.Refs) == 0 {
			return 0, "", fmt.Errorf("finding %d has no page references", n)
		}
		return fr.Refs[0].Page, fr.Refs[0].LocatorText, nil
	}
	return 0, "", fmt.Errorf("finding %d not found", n)
}

// loadDocument opens a PDF through the text layer cache or parses a pdf.js
// HTML snapshot. The snapshot is returned too so it can be written back.
func (a *App) loadDocument(ctx context.Context) (view.Document, *htmlview.Document, error) {
	path := strings.TrimSpace(a.cfg.DocumentPath)
	switch {
	case path == "":
		return nil, nil, fmt.Errorf("highlight: document is required")
	case isPDFPath(path):
		logger := a.logger
		l := &pdfview.Loader{Cache: a.layerCache, Logger: &logger}
		doc, err := l.Load(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return doc, nil, nil
	case isHTMLPath(path):
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		d, err := htmlview.Parse(f)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return d, d, nil
	}
	return nil, nil, fmt.Errorf("unsupported document type: %s", path)
}

// runHighlight sets one target and waits for its settled result.
func runHighlight(ctx context.Context, doc view.Document, page int, text string, opts highlight.Options, timeout time.Duration) (highlight.Result, error) {
	settled := make(chan highlight.Result, 1)
	opts.OnSettled = func(r highlight.Result) {
		select {
		case settled <- r:
		default:
		}
	}
	h := highlight.New(doc, opts)
	defer h.Close()
	h.SetTarget(page, text)

	if timeout <= 0 {
		timeout = defaultHighlightTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-settled:
		return r, nil
	case <-ctx.Done():
		return highlight.Result{}, ctx.Err()
	case <-timer.C:
		return highlight.Result{}, fmt.Errorf("highlight: no result within %s", timeout)
	}
}

func markedSpans(doc view.Document, n int) []string {
	p, ok := doc.Page(n)
	if !ok {
		return nil
	}
	spans, ok := p.TextLayer()
	if !ok {
		return nil
	}
	var out []string
	for _, s := range spans {
		if s.Marked() {
			out = append(out, oneLine(s.Text()))
		}
	}
	return out
}

func writeSnapshot(d *htmlview.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render snapshot: %w", err)
	}
	return f.Close()
}
