package app

import (
    "strings"
    "unicode"
)

const tocTitle = "Содержание"

// appendAutoToC inserts a Markdown table of contents after the header and
// metadata block when the document contains at least minHeadings H2-H3
// headings. If a ToC already exists, the document is returned unchanged.
func appendAutoToC(markdown string, minHeadings int) string {
    if minHeadings <= 0 { minHeadings = 12 }
    if containsHeadingCase(markdown, tocTitle) {
        return markdown
    }
    lines := strings.Split(markdown, "\n")

    type item struct{ level int; text string }
    items := make([]item, 0, 64)
    h1Seen := false
    for _, raw := range lines {
        s := strings.TrimSpace(raw)
        if !strings.HasPrefix(s, "#") { continue }
        level := countPrefix(s, '#')
        if level < 1 || level > 6 { continue }
        t := strings.TrimSpace(strings.TrimLeft(s, "#"))
        if t == "" { continue }
        if !h1Seen && level == 1 {
            h1Seen = true
            continue
        }
        if level == 2 || level == 3 {
            items = append(items, item{level: level, text: t})
        }
    }
    if len(items) < minHeadings { return markdown }

    var b strings.Builder
    b.WriteString("## " + tocTitle + "\n\n")
    for _, it := range items {
        slug := makeSlugForToC(it.text)
        if slug == "" { continue }
        if it.level == 3 { b.WriteString("  ") }
        b.WriteString("- [")
        b.WriteString(it.text)
        b.WriteString("](#")
        b.WriteString(slug)
        b.WriteString(")\n")
    }
    b.WriteString("\n")

    insertAt := indexAfterHeaderAndMetadata(lines)

    out := make([]string, 0, len(lines)+16)
    out = append(out, lines[:insertAt]...)
    if insertAt > 0 && strings.TrimSpace(lines[insertAt-1]) != "" {
        out = append(out, "")
    }
    out = append(out, b.String())
    if insertAt < len(lines) && strings.TrimSpace(lines[insertAt]) != "" {
        out = append(out, "")
    }
    out = append(out, lines[insertAt:]...)
    return strings.Join(out, "\n")
}

// indexAfterHeaderAndMetadata returns the line index after the first H1, the
// date line below it and any "Стадия:"/"Тип требований:" metadata lines.
func indexAfterHeaderAndMetadata(lines []string) int {
    first := -1
    for i, raw := range lines {
        s := strings.TrimSpace(raw)
        if strings.HasPrefix(s, "# ") { first = i; break }
        if s != "" { break }
    }
    if first == -1 { return 0 }
    idx := first + 1
    for i := first + 1; i < len(lines); i++ {
        if strings.TrimSpace(lines[i]) == "" { continue }
        idx = i + 1
        break
    }
    limit := idx + 10
    if limit > len(lines) { limit = len(lines) }
    for i := idx; i < limit; i++ {
        s := strings.TrimSpace(lines[i])
        if s == "" { continue }
        if hasPrefixFold(s, "стадия:") || hasPrefixFold(s, "тип требований:") { idx = i + 1; continue }
        break
    }
    return idx
}

func countPrefix(s string, r byte) int {
    n := 0
    for i := 0; i < len(s) && s[i] == r; i++ { n++ }
    return n
}

func hasPrefixFold(s, prefix string) bool {
    if len(s) < len(prefix) { return false }
    return strings.EqualFold(s[:len(prefix)], prefix)
}

func containsHeadingCase(markdown, title string) bool {
    t := strings.TrimSpace(title)
    for _, line := range strings.Split(markdown, "\n") {
        s := strings.TrimSpace(line)
        if !strings.HasPrefix(s, "#") { continue }
        s = strings.TrimSpace(strings.TrimLeft(s, "#"))
        if strings.EqualFold(s, t) { return true }
    }
    return false
}

// makeSlugForToC mirrors the slug rules of the report validator so anchor
// links resolve to headings in the same document.
func makeSlugForToC(s string) string {
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
        }
    }
    return strings.Trim(b.String(), "-")
}
