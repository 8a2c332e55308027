package validate

import (
    "fmt"
    "sort"
    "strings"

    "github.com/hyperifyio/sheetlink/internal/finding"
    "github.com/hyperifyio/sheetlink/internal/refs"
    "github.com/hyperifyio/sheetlink/internal/sheetmap"
)

// Severity ranks an Issue. Nothing here fails a run; callers log issues and
// carry on with partial results.
type Severity int

const (
    Info Severity = iota
    Warning
)

func (s Severity) String() string {
    if s == Warning {
        return "warning"
    }
    return "info"
}

// Issue is one problem found in the input data.
type Issue struct {
    Severity Severity
    Finding  int // finding number, 0 when not tied to one
    Message  string
}

func (i Issue) String() string {
    if i.Finding > 0 {
        return fmt.Sprintf("%s: finding %d: %s", i.Severity, i.Finding, i.Message)
    }
    return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// ValidateFindings checks decoded findings for things a reviewer would want
// to know about: unrecognized status labels, duplicate numbers, missing
// references on findings that claim fulfilment, and sheet labels the map
// cannot resolve.
func ValidateFindings(findings []finding.Finding, m sheetmap.Map) []Issue {
    var issues []Issue
    seen := map[int]struct{}{}
    for _, f := range findings {
        if _, dup := seen[f.Number]; dup {
            issues = append(issues, Issue{Warning, f.Number, "duplicate finding number"})
        }
        seen[f.Number] = struct{}{}
        if f.Status == finding.StatusUnknown {
            issues = append(issues, Issue{Warning, f.Number, fmt.Sprintf("unrecognized status %q", f.StatusText)})
        }
        ref := strings.TrimSpace(f.Reference)
        if f.Status == finding.StatusFulfilled && (ref == "" || ref == "-") {
            issues = append(issues, Issue{Warning, f.Number, "fulfilled without a reference"})
        }
        if bad := refs.UnresolvedLabels(ref, m); len(bad) > 0 {
            issues = append(issues, Issue{Info, f.Number, fmt.Sprintf("unresolved sheet labels %v", bad)})
        }
        if strings.TrimSpace(f.Requirement) == "" {
            issues = append(issues, Issue{Info, f.Number, "empty requirement text"})
        }
    }
    return issues
}

// ValidateReferences reports references pointing past the end of the
// document. A non-positive pageCount disables the check.
func ValidateReferences(byFinding map[int][]refs.PageReference, pageCount int) []Issue {
    if pageCount <= 0 {
        return nil
    }
    numbers := make([]int, 0, len(byFinding))
    for n := range byFinding {
        numbers = append(numbers, n)
    }
    sort.Ints(numbers)
    var issues []Issue
    for _, n := range numbers {
        for _, r := range byFinding[n] {
            if r.Page > pageCount {
                issues = append(issues, Issue{Warning, n, fmt.Sprintf("sheet %s resolves to page %d, document has %d", r.SheetNumber, r.Page, pageCount)})
            }
        }
    }
    return issues
}

// ValidateSheetMap reports map entries outside the document.
func ValidateSheetMap(m sheetmap.Map, pageCount int) []Issue {
    _, dropped := m.Validate(pageCount)
    var issues []Issue
    for _, label := range dropped {
        issues = append(issues, Issue{Warning, 0, fmt.Sprintf("sheet map entry %s=%d is past the last page %d", label, m[label], pageCount)})
    }
    return issues
}
