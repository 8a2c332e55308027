// Package pdfview builds a view.Document from a PDF file: every text row of a
// page becomes one span. Extraction is slow on large drawing sets, so the
// rows are cached on disk keyed by the PDF's digest.
package pdfview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sheetlink/internal/cache"
	"github.com/hyperifyio/sheetlink/internal/textnorm"
	"github.com/hyperifyio/sheetlink/internal/view"
)

const layerCacheVersion = "textlayer/v1"

func init() {
	// Page counting must not create a pdfcpu config directory in $HOME.
	api.DisableConfigDir()
}

// PageText is the extracted text layer of one page.
type PageText struct {
	HasText bool     `json:"hasText"`
	Spans   []string `json:"spans,omitempty"`
}

// Layers holds every page of a document in order.
type Layers struct {
	Pages []PageText `json:"pages"`
}

// Loader extracts text layers. Cache is optional.
type Loader struct {
	Cache  *cache.LayerCache
	Logger *zerolog.Logger
}

func (l *Loader) logger() *zerolog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return &log.Logger
}

// Load reads the PDF at path and returns a fully rendered in-memory document.
func (l *Loader) Load(ctx context.Context, path string) (*view.Memory, error) {
	layers, err := l.Layers(ctx, path)
	if err != nil {
		return nil, err
	}
	return Build(layers), nil
}

// Layers returns the text layers of the PDF at path, from cache when possible.
func (l *Loader) Layers(ctx context.Context, path string) (Layers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layers{}, err
	}
	key := cache.KeyFrom(layerCacheVersion, cache.DigestBytes(data))
	lg := l.logger()
	if l.Cache != nil {
		if b, ok, err := l.Cache.Get(ctx, key); err == nil && ok {
			var cached Layers
			if json.Unmarshal(b, &cached) == nil {
				lg.Debug().Str("pdf", path).Int("pages", len(cached.Pages)).Msg("text layers from cache")
				return cached, nil
			}
		}
	}
	layers, err := Extract(ctx, data)
	if err != nil {
		return Layers{}, fmt.Errorf("extract %s: %w", path, err)
	}
	if l.Cache != nil {
		if b, err := json.Marshal(layers); err == nil {
			if err := l.Cache.Save(ctx, key, b); err != nil {
				lg.Warn().Err(err).Msg("text layer cache save failed")
			}
		}
	}
	lg.Debug().Str("pdf", path).Int("pages", len(layers.Pages)).Msg("text layers extracted")
	return layers, nil
}

// Extract reads the text rows of every page of a PDF held in memory. Pages
// without any text row are reported without a text layer.
func Extract(ctx context.Context, data []byte) (layers Layers, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Layers{}, err
	}
	n := r.NumPage()
	layers.Pages = make([]PageText, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Layers{}, err
		}
		layers.Pages = append(layers.Pages, pageText(r.Page(i)))
	}
	return layers, nil
}

func pageText(p pdf.Page) PageText {
	if p.V.IsNull() {
		return PageText{}
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return PageText{}
	}
	var spans []string
	for _, row := range rows {
		var b strings.Builder
		for _, t := range row.Content {
			b.WriteString(t.S)
		}
		if s := textnorm.Normalize(b.String()); s != "" {
			spans = append(spans, s)
		}
	}
	if len(spans) == 0 {
		return PageText{}
	}
	return PageText{HasText: true, Spans: spans}
}

// Build turns extracted layers into a rendered view.Memory.
func Build(layers Layers) *view.Memory {
	doc := view.NewMemory()
	for _, p := range layers.Pages {
		if p.HasText {
			doc.AddPage(p.Spans...)
		} else {
			doc.AddImagePage()
		}
	}
	doc.RenderAll()
	return doc
}

// PageCount returns the number of pages of the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("page count %s: %w", path, err)
	}
	return n, nil
}
