package app

import (
    "fmt"
    "strings"
)

// runFacts are the inputs recorded in the report footer.
type runFacts struct {
    RunID          string
    FindingsSource string
    SheetMapSource string
    SheetMapSize   int
    PageCount      int
    References     int
    HTTPCache      bool
}

// appendReproFooter appends a deterministic footer that records what the
// report was built from.
func appendReproFooter(markdown string, f runFacts) string {
    var b strings.Builder
    b.WriteString(markdown)
    if !strings.HasSuffix(markdown, "\n") {
        b.WriteString("\n")
    }
    b.WriteString("\n---\n")
    b.WriteString("Reproducibility: ")
    fmt.Fprintf(&b, "run_id=%s", f.RunID)
    fmt.Fprintf(&b, "; findings=%s", strings.TrimSpace(f.FindingsSource))
    fmt.Fprintf(&b, "; sheet_map=%s (%d entries)", orDash(f.SheetMapSource), f.SheetMapSize)
    fmt.Fprintf(&b, "; pages=%d", f.PageCount)
    fmt.Fprintf(&b, "; references=%d", f.References)
    fmt.Fprintf(&b, "; http_cache=%t", f.HTTPCache)
    b.WriteString("\n")
    return b.String()
}

func orDash(s string) string {
    if s = strings.TrimSpace(s); s == "" {
        return "-"
    }
    return s
}
