package app

import (
    "bytes"
    "context"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/hyperifyio/sheetlink/internal/highlight"
)

const testSnapshot = `<!DOCTYPE html><html><body><div id="viewer" class="pdfViewer">
<div class="page" data-page-number="1" data-loaded="true">
  <div class="canvasWrapper"></div>
  <div class="textLayer"><span role="presentation">Общие данные</span></div>
</div>
<div class="page" data-page-number="2" data-loaded="true">
  <div class="canvasWrapper"></div>
  <div class="textLayer">
    <span role="presentation">План кровли</span>
    <span role="presentation">Узел утепления стены</span>
  </div>
</div>
</div></body></html>`

func TestHighlight_SnapshotExactMatch(t *testing.T) {
    dir := t.TempDir()
    doc := filepath.Join(dir, "viewer.html")
    if err := os.WriteFile(doc, []byte(testSnapshot), 0o644); err != nil {
        t.Fatal(err)
    }
    cfg := DefaultConfig()
    cfg.DocumentPath, cfg.CacheDir = doc, ""
    cfg.Highlight.Page = 2
    cfg.Highlight.Text = "узел утепления стены"
    cfg.Highlight.RenderDelay = -1
    cfg.Highlight.ScrollInterval = time.Millisecond
    cfg.Highlight.Timeout = 5 * time.Second
    cfg.Highlight.HTMLOut = filepath.Join(dir, "out.html")
    a := newTestApp(t, cfg)

    var out bytes.Buffer
    res, err := a.Highlight(context.Background(), &out)
    if err != nil {
        t.Fatalf("highlight: %v", err)
    }
    if res.MatchKind != highlight.Exact || res.MatchedSpanCount != 1 {
        t.Fatalf("unexpected result %+v", res)
    }
    if !strings.Contains(out.String(), "page=2 match=exact spans=1 reason=matched") {
        t.Fatalf("unexpected output %q", out.String())
    }
    if !strings.Contains(out.String(), "  > Узел утепления стены") {
        t.Fatalf("marked span not listed: %q", out.String())
    }
    b, err := os.ReadFile(cfg.Highlight.HTMLOut)
    if err != nil {
        t.Fatalf("snapshot not written: %v", err)
    }
    if !strings.Contains(string(b), `class="highlight"`) {
        t.Fatalf("snapshot has no highlighted span:\n%s", b)
    }
}

func TestHighlight_RequiresPage(t *testing.T) {
    cfg := DefaultConfig()
    cfg.DocumentPath, cfg.CacheDir = "viewer.html", ""
    if _, err := newTestApp(t, cfg).Highlight(context.Background(), &bytes.Buffer{}); err == nil {
        t.Fatalf("expected error without a page")
    }
}

func TestFindingTarget(t *testing.T) {
    dir := t.TempDir()
    fp, mp := writeInputs(t, dir, "AR-03: 12\n")
    cfg := DefaultConfig()
    cfg.FindingsPath, cfg.SheetMapPath, cfg.CacheDir = fp, mp, ""
    a := newTestApp(t, cfg)

    page, text, err := a.findingTarget(context.Background(), 1)
    if err != nil || page != 12 || text != "узел утепления стены" {
        t.Fatalf("finding 1 target: %d %q %v", page, text, err)
    }
    if _, _, err := a.findingTarget(context.Background(), 3); err == nil {
        t.Fatalf("finding 3 has no references")
    }
    if _, _, err := a.findingTarget(context.Background(), 42); err == nil {
        t.Fatalf("finding 42 does not exist")
    }
}
