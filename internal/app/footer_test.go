package app

import (
    "strings"
    "testing"
)

func TestAppendReproFooter_AppendsDeterministicFooter(t *testing.T) {
    base := "# Отчет\n\n2026-01-01\n"
    facts := runFacts{
        RunID:          "run-1",
        FindingsSource: " result.json ",
        SheetMapSize:   0,
        PageCount:      40,
        References:     3,
        HTTPCache:      true,
    }
    out := appendReproFooter(base, facts)
    want := "\n---\nReproducibility: run_id=run-1; findings=result.json; sheet_map=- (0 entries); pages=40; references=3; http_cache=true\n"
    if !strings.HasSuffix(out, want) {
        t.Fatalf("unexpected footer:\n%s", out)
    }
    if out != appendReproFooter(base, facts) {
        t.Fatalf("footer is not deterministic")
    }
}

func TestAppendReproFooter_AddsMissingNewline(t *testing.T) {
    out := appendReproFooter("body", runFacts{RunID: "x", SheetMapSource: "sheets.yaml", SheetMapSize: 2})
    if !strings.HasPrefix(out, "body\n\n---\n") {
        t.Fatalf("expected newline before separator: %q", out)
    }
    if !strings.Contains(out, "sheet_map=sheets.yaml (2 entries)") {
        t.Fatalf("sheet map source missing: %q", out)
    }
}
