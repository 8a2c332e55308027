package htmlview

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/sheetlink/internal/highlight"
)

const snapshot = `<!DOCTYPE html><html><body><div id="viewer" class="pdfViewer">
<div class="page" data-page-number="1" data-loaded="true">
  <div class="canvasWrapper"></div>
  <div class="textLayer">
    <span role="presentation">План кровли</span>
    <span class="markedContent"><span role="presentation">Узел крепления утеплителя</span></span>
  </div>
</div>
<div class="page" data-page-number="2" data-loaded="true"><div class="canvasWrapper"></div></div>
<div class="page" data-page-number="3"></div>
</div></body></html>`

func TestParse_PagesAndTextLayers(t *testing.T) {
	d, err := ParseBytes([]byte(snapshot))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", d.PageCount())
	}
	if got := len(d.Pages()); got != 2 {
		t.Fatalf("expected 2 rendered pages, got %d", got)
	}
	if _, ok := d.Page(3); ok {
		t.Fatalf("page 3 is not rendered")
	}
	p1, ok := d.Page(1)
	if !ok {
		t.Fatalf("page 1 missing")
	}
	spans, ok := p1.TextLayer()
	if !ok || len(spans) != 2 {
		t.Fatalf("unexpected spans %d %v", len(spans), ok)
	}
	if spans[1].Text() != "Узел крепления утеплителя" {
		t.Fatalf("unexpected span text %q", spans[1].Text())
	}
	p2, _ := d.Page(2)
	if _, ok := p2.TextLayer(); ok {
		t.Fatalf("page 2 has no text layer")
	}
}

func TestSpan_MarkAndScrollRendered(t *testing.T) {
	d, _ := ParseBytes([]byte(snapshot))
	p1, _ := d.Page(1)
	spans, _ := p1.TextLayer()
	spans[0].SetMarked(true)
	spans[0].ScrollIntoView(true)
	if !spans[0].Marked() {
		t.Fatalf("span should be marked")
	}
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `class="highlight"`) || !strings.Contains(out, `data-scroll="center"`) {
		t.Fatalf("rendered html lacks marks:\n%s", out)
	}
	spans[0].SetMarked(false)
	p1.ScrollIntoView()
	buf.Reset()
	_ = d.Render(&buf)
	out = buf.String()
	if strings.Contains(out, "highlight") || strings.Count(out, ScrollAttr) != 1 || !strings.Contains(out, `data-scroll="page"`) {
		t.Fatalf("unexpected html after unmark:\n%s", out)
	}
}

type noDelay struct{}

func (noDelay) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestHighlighter_DrivesSnapshot(t *testing.T) {
	d, _ := ParseBytes([]byte(snapshot))
	results := make(chan highlight.Result, 1)
	nop := zerolog.Nop()
	h := highlight.New(d, highlight.Options{Timer: noDelay{}, Logger: &nop, OnSettled: func(r highlight.Result) { results <- r }})
	defer h.Close()

	h.SetTarget(1, "утеплителя крепления")
	select {
	case r := <-results:
		if r.MatchKind != highlight.TokenOverlap || r.MatchedSpanCount != 1 {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out")
	}
	p1, _ := d.Page(1)
	spans, _ := p1.TextLayer()
	if spans[0].Marked() || !spans[1].Marked() {
		t.Fatalf("wrong span marked")
	}
}
