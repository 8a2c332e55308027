package validate

import (
    "fmt"
    "regexp"
    "strings"
    "unicode"
)

// ReportColumns is the column count of the findings table.
const ReportColumns = 8

// ValidateReport performs post-generation checks on a review report: the
// findings table is present, every row has ReportColumns cells, and every
// in-document link points at an existing heading or anchor.
func ValidateReport(markdown string) error {
    rows, ok := tableRows(markdown)
    if !ok {
        return fmt.Errorf("findings table missing")
    }
    for i, row := range rows {
        if n := countCells(row); n != ReportColumns {
            return fmt.Errorf("findings table row %d has %d cells, want %d", i+1, n, ReportColumns)
        }
    }
    return validateAnchorLinks(markdown)
}

// tableRows returns the body rows of the first Markdown table whose header
// has ReportColumns cells.
func tableRows(markdown string) ([]string, bool) {
    lines := splitLines(markdown)
    for i := 0; i+1 < len(lines); i++ {
        head := strings.TrimSpace(lines[i])
        sep := strings.TrimSpace(lines[i+1])
        if !strings.HasPrefix(head, "|") || !isSeparatorRow(sep) || countCells(head) != ReportColumns {
            continue
        }
        var rows []string
        for _, l := range lines[i+2:] {
            l = strings.TrimSpace(l)
            if !strings.HasPrefix(l, "|") {
                break
            }
            rows = append(rows, l)
        }
        return rows, true
    }
    return nil, false
}

func isSeparatorRow(s string) bool {
    if !strings.HasPrefix(s, "|") {
        return false
    }
    return strings.Trim(s, "|-: ") == ""
}

// countCells counts the cells of a table row, honoring escaped pipes.
func countCells(row string) int {
    row = strings.TrimSpace(row)
    row = strings.TrimPrefix(row, "|")
    row = strings.TrimSuffix(row, "|")
    n := 1
    escaped := false
    for _, r := range row {
        switch {
        case escaped:
            escaped = false
        case r == '\\':
            escaped = true
        case r == '|':
            n++
        }
    }
    return n
}

var (
    anchorLinkRe = regexp.MustCompile(`\[[^\]]+\]\((#[^)]+)\)`) // [text](#anchor)
    explicitRe   = regexp.MustCompile(`<a (?:id|name)="([^"]+)"`)
)

// validateAnchorLinks ensures in-document links reference existing headings
// or explicit <a id> anchors.
func validateAnchorLinks(markdown string) error {
    lines := splitLines(markdown)
    slugs := map[string]struct{}{}
    for _, line := range lines {
        s := strings.TrimSpace(line)
        if isHeading(s) {
            if slug := makeSlug(stripHeading(s)); slug != "" {
                slugs[slug] = struct{}{}
            }
        }
        for _, m := range explicitRe.FindAllStringSubmatch(line, -1) {
            slugs[m[1]] = struct{}{}
        }
    }
    var missing []string
    uniq := map[string]struct{}{}
    for _, line := range lines {
        for _, m := range anchorLinkRe.FindAllStringSubmatch(line, -1) {
            target := strings.TrimPrefix(strings.TrimSpace(m[1]), "#")
            if _, ok := slugs[target]; ok {
                continue
            }
            if _, ok := slugs[makeSlug(target)]; ok {
                continue
            }
            if _, ok := uniq[target]; ok {
                continue
            }
            uniq[target] = struct{}{}
            missing = append(missing, target)
        }
    }
    if len(missing) > 0 {
        return fmt.Errorf("broken anchor links to missing headings: %v", missing)
    }
    return nil
}

// makeSlug lowercases s, keeps letters and digits of any script, and joins
// words with hyphens.
func makeSlug(s string) string {
    s = strings.ToLower(strings.TrimSpace(s))
    var b strings.Builder
    lastHyphen := false
    for _, r := range s {
        if unicode.IsLetter(r) || unicode.IsDigit(r) {
            b.WriteRune(r)
            lastHyphen = false
            continue
        }
        if r == ' ' || r == '-' || r == '_' {
            if !lastHyphen {
                b.WriteByte('-')
                lastHyphen = true
            }
            continue
        }
        // drop other characters
    }
    return strings.Trim(b.String(), "-")
}

func splitLines(s string) []string {
    return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func isHeading(s string) bool {
    if !strings.HasPrefix(s, "#") {
        return false
    }
    i := strings.IndexFunc(s, func(r rune) bool { return r != '#' })
    return i > 0 && i <= 6 && s[i] == ' '
}

func stripHeading(s string) string {
    return strings.TrimSpace(strings.TrimLeft(s, "#"))
}
