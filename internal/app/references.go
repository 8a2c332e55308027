package app

import (
    "encoding/json"
    "fmt"
    "io"
    "strings"

    "github.com/hyperifyio/sheetlink/internal/finding"
    "github.com/hyperifyio/sheetlink/internal/refs"
    "github.com/hyperifyio/sheetlink/internal/sheetmap"
)

// FindingRefs pairs a finding with the page references extracted from it.
type FindingRefs struct {
    Finding finding.Finding
    Refs    []refs.Traced
}

// Pages returns the plain references without tier information.
func (fr FindingRefs) Pages() []refs.PageReference {
    out := make([]refs.PageReference, 0, len(fr.Refs))
    for _, t := range fr.Refs {
        out = append(out, t.PageReference)
    }
    return out
}

// ResolveAll extracts references for every finding, in input order.
func ResolveAll(findings []finding.Finding, m sheetmap.Map) []FindingRefs {
    out := make([]FindingRefs, 0, len(findings))
    for _, f := range findings {
        out = append(out, FindingRefs{
            Finding: f,
            Refs:    refs.ExtractTraced(f.SolutionDescription, f.Reference, m),
        })
    }
    return out
}

// byNumber indexes plain references by finding number.
func byNumber(all []FindingRefs) map[int][]refs.PageReference {
    out := make(map[int][]refs.PageReference, len(all))
    for _, fr := range all {
        out[fr.Finding.Number] = append(out[fr.Finding.Number], fr.Pages()...)
    }
    return out
}

func countRefs(all []FindingRefs) int {
    n := 0
    for _, fr := range all {
        n += len(fr.Refs)
    }
    return n
}

type refsJSONEntry struct {
    Number     int                  `json:"number"`
    Status     string               `json:"status"`
    Reference  string               `json:"reference"`
    References []refs.PageReference `json:"references"`
    Tiers      []string             `json:"tiers,omitempty"`
}

// writeRefsJSON emits one entry per finding; references is never null.
func writeRefsJSON(w io.Writer, all []FindingRefs) error {
    entries := make([]refsJSONEntry, 0, len(all))
    for _, fr := range all {
        e := refsJSONEntry{
            Number:     fr.Finding.Number,
            Status:     fr.Finding.Status.String(),
            Reference:  fr.Finding.Reference,
            References: fr.Pages(),
        }
        for _, t := range fr.Refs {
            e.Tiers = append(e.Tiers, t.Tier.String())
        }
        entries = append(entries, e)
    }
    enc := json.NewEncoder(w)
    enc.SetIndent("", "  ")
    enc.SetEscapeHTML(false)
    return enc.Encode(entries)
}

// writeRefsMarkdown emits a compact list per finding.
func writeRefsMarkdown(w io.Writer, all []FindingRefs) error {
    var b strings.Builder
    for _, fr := range all {
        f := fr.Finding
        fmt.Fprintf(&b, "## %d. %s\n\n", f.Number, oneLine(f.Requirement))
        if len(fr.Refs) == 0 {
            b.WriteString("- (no page references)\n\n")
            continue
        }
        for _, t := range fr.Refs {
            fmt.Fprintf(&b, "- p. %d (sheet %s): %s\n", t.Page, t.SheetNumber, oneLine(t.LocatorText))
        }
        b.WriteString("\n")
    }
    _, err := io.WriteString(w, b.String())
    return err
}

func oneLine(s string) string {
    return strings.Join(strings.Fields(s), " ")
}
