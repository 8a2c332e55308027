package app

import (
    "fmt"
    "net/url"
    "path/filepath"
    "strconv"
    "strings"
    "time"

    "github.com/hyperifyio/sheetlink/internal/finding"
)

// reportColumns are the findings table headers of the analysis service.
var reportColumns = []string{
    "№",
    "Требование из ТЗ",
    "Статус исполнения",
    "Достоверность",
    "Решение в документации",
    "Ссылка на лист",
    "Несоответствия",
    "Рекомендации",
}

type reportOptions struct {
    DocumentLink string
    GeneratedAt  time.Time
    // TocThreshold is the number of finding sections that triggers a ToC.
    TocThreshold int
}

// buildReport renders the Markdown review report: header, summary, findings
// table and one cross-link section per finding.
func buildReport(resp *finding.Response, all []FindingRefs, opts reportOptions) string {
    var b strings.Builder
    b.WriteString("# Отчет о проверке документации\n")
    b.WriteString(opts.GeneratedAt.UTC().Format("2006-01-02"))
    b.WriteString("\n")
    if resp.Stage != "" {
        fmt.Fprintf(&b, "Стадия: %s\n", finding.StageLabel(resp.Stage))
    }
    if resp.ReqType != "" {
        fmt.Fprintf(&b, "Тип требований: %s\n", finding.ReqTypeLabel(resp.ReqType))
    }
    b.WriteString("\n## Сводка\n\n")
    findings := make([]finding.Finding, 0, len(all))
    for _, fr := range all {
        findings = append(findings, fr.Finding)
    }
    b.WriteString(finding.Summarize(findings).Text())
    b.WriteString("\n")
    if s := strings.TrimSpace(resp.Summary); s != "" {
        b.WriteString("\n> ")
        b.WriteString(strings.ReplaceAll(s, "\n", "\n> "))
        b.WriteString("\n")
    }

    b.WriteString("\n## Результаты проверки\n\n")
    b.WriteString("| " + strings.Join(reportColumns, " | ") + " |\n")
    b.WriteString(strings.Repeat("|---", len(reportColumns)) + "|\n")
    for _, fr := range all {
        f := fr.Finding
        cells := []string{
            strconv.Itoa(f.Number),
            escapeCell(f.Requirement),
            escapeCell(statusText(f)),
            strconv.Itoa(f.Confidence) + "%",
            escapeCell(f.SolutionDescription),
            referenceCell(fr),
            escapeCell(f.Discrepancies),
            escapeCell(f.Recommendations),
        }
        b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
    }

    b.WriteString("\n## Ссылки на страницы\n")
    for _, fr := range all {
        f := fr.Finding
        fmt.Fprintf(&b, "\n<a id=\"%s\"></a>\n", findingAnchor(f.Number))
        fmt.Fprintf(&b, "### Требование %d\n\n", f.Number)
        if len(fr.Refs) == 0 {
            b.WriteString("Ссылки на страницы не найдены.\n")
            continue
        }
        for _, r := range fr.Refs {
            page := fmt.Sprintf("Страница %d", r.Page)
            if opts.DocumentLink != "" {
                page = "[" + page + "](" + pageLink(opts.DocumentLink, r.Page) + ")"
            }
            fmt.Fprintf(&b, "- %s: лист %s, %s\n", page, r.SheetNumber, oneLine(r.LocatorText))
        }
    }
    return appendAutoToC(b.String(), opts.TocThreshold)
}

func statusText(f finding.Finding) string {
    if f.Status == finding.StatusUnknown && strings.TrimSpace(f.StatusText) != "" {
        return f.StatusText
    }
    return f.Status.Label()
}

// referenceCell keeps the original reference text and links each resolved
// page to the finding's cross-link section.
func referenceCell(fr FindingRefs) string {
    ref := escapeCell(fr.Finding.Reference)
    if len(fr.Refs) == 0 {
        return ref
    }
    links := make([]string, 0, len(fr.Refs))
    for _, r := range fr.Refs {
        links = append(links, fmt.Sprintf("[стр. %d](#%s)", r.Page, findingAnchor(fr.Finding.Number)))
    }
    if ref == "-" {
        return strings.Join(links, ", ")
    }
    return ref + ": " + strings.Join(links, ", ")
}

func findingAnchor(n int) string { return "finding-" + strconv.Itoa(n) }

// pageLink builds a PDF open-parameters link ("doc.pdf#page=12").
func pageLink(doc string, page int) string {
    if !strings.Contains(doc, "://") {
        doc = (&url.URL{Path: filepath.ToSlash(doc)}).EscapedPath()
    }
    return doc + "#page=" + strconv.Itoa(page)
}

// escapeCell makes free text safe for a single Markdown table cell.
func escapeCell(s string) string {
    s = strings.TrimSpace(s)
    if s == "" {
        return "-"
    }
    s = strings.ReplaceAll(s, "\r\n", "\n")
    s = strings.ReplaceAll(s, "|", `\|`)
    s = strings.ReplaceAll(s, "\n", "<br>")
    return s
}
